package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/mappoints/internal/config"
	"github.com/JonMunkholm/mappoints/internal/core"
)

// Backend is implemented by every store in this package.
type Backend interface {
	Load(ctx context.Context) ([]core.PointRecord, error)
	Save(ctx context.Context, points []core.PointRecord) error
	Close() error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Postgres)(nil)
	_ Backend = (*SQLite)(nil)
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory, "":
		slog.Info("using in-memory point store")
		return NewMemory(), nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "name", DatabaseName(cfg.URL))
		return s, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("opened sqlite point store", "path", cfg.SQLitePath)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
