package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mappoints/internal/config"
	"github.com/JonMunkholm/mappoints/internal/core"
)

func fixturePoints() []core.PointRecord {
	return []core.PointRecord{
		{
			ID:          "b",
			Position:    core.Position{Lat: 47.6062, Lng: -122.3321},
			Name:        "Seattle",
			Description: "HQ",
			Status:      "active",
			Group:       "west",
			Properties:  map[string]any{"owner": "ann", "floors": 12.0, "open": true},
			CreatedAt:   1700000000000,
			UpdatedAt:   1700000005000,
		},
		{
			ID:         "a",
			Position:   core.Position{Lat: -33.8688, Lng: 151.2093},
			Properties: map[string]any{},
		},
	}
}

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := fixturePoints()
	require.NoError(t, b.Save(ctx, want))

	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got, "points load back in saved order")

	require.NoError(t, b.Save(ctx, want[1:]))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want[1:], got, "save replaces the dataset")

	require.NoError(t, b.Save(ctx, nil))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemory_CopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	points := fixturePoints()
	require.NoError(t, m.Save(ctx, points))

	points[0].Properties["owner"] = "mutated"
	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", loaded[0].Properties["owner"])

	loaded[0].Name = "changed"
	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Seattle", again[0].Name)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "points.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseBackend(t, s)
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "points.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, fixturePoints()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixturePoints(), got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	require.NoError(t, b.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestPropertiesCodec(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{"nil", nil, "{}"},
		{"empty", map[string]any{}, "{}"},
		{"values", map[string]any{"a": "x", "n": 1.5}, `{"a":"x","n":1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeProperties(tt.props)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := decodeProperties([]byte(got))
			require.NoError(t, err)
			assert.NotNil(t, back)
			assert.Len(t, back, len(tt.props))
		})
	}

	_, err := decodeProperties([]byte("[1,2]"))
	assert.Error(t, err)

	back, err := decodeProperties([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, back)
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "points", DatabaseName("postgres://user:pw@localhost:5432/points?sslmode=disable"))
	assert.Equal(t, "", DatabaseName("::not a url"))
}
