// Package store persists the current point dataset.
//
// Every store holds exactly one dataset and replaces it wholesale on Save:
// the merge engine always produces the complete next state.
package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/mappoints/internal/core"
)

// Memory keeps the dataset in process memory.
type Memory struct {
	mu     sync.RWMutex
	points []core.PointRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the stored points.
func (m *Memory) Load(ctx context.Context) ([]core.PointRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clonePoints(m.points), nil
}

// Save replaces the stored points with a copy of points.
func (m *Memory) Save(ctx context.Context, points []core.PointRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := clonePoints(points)
	m.mu.Lock()
	m.points = cp
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func clonePoints(points []core.PointRecord) []core.PointRecord {
	out := make([]core.PointRecord, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}
