package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/mappoints/internal/config"
	"github.com/JonMunkholm/mappoints/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS map_points (
	seq          INTEGER PRIMARY KEY,
	id           TEXT NOT NULL,
	lat          DOUBLE PRECISION NOT NULL,
	lng          DOUBLE PRECISION NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	point_group  TEXT NOT NULL DEFAULT '',
	properties   JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at   BIGINT NOT NULL DEFAULT 0,
	updated_at   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS map_points_id_idx ON map_points (id);
`

const (
	pgSelectPoints = `SELECT id, lat, lng, name, description, status, point_group, properties, created_at, updated_at
FROM map_points ORDER BY seq`
	pgInsertPoint = `INSERT INTO map_points
(seq, id, lat, lng, name, description, status, point_group, properties, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)`
	pgDeletePoints = `DELETE FROM map_points`
)

// Postgres stores the dataset in the map_points table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool configured from cfg, verifies it and applies the schema.
func OpenPostgres(ctx context.Context, cfg config.StorageConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool and applies the schema.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Load returns the stored points in insertion order.
func (s *Postgres) Load(ctx context.Context) ([]core.PointRecord, error) {
	rows, err := s.pool.Query(ctx, pgSelectPoints)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	defer rows.Close()

	points := []core.PointRecord{}
	for rows.Next() {
		var (
			p   core.PointRecord
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.Position.Lat, &p.Position.Lng, &p.Name, &p.Description,
			&p.Status, &p.Group, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if p.Properties, err = decodeProperties(raw); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.ID, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	return points, nil
}

// Save replaces the table contents in one transaction. On error the previous
// dataset is left untouched.
func (s *Postgres) Save(ctx context.Context, points []core.PointRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, pgDeletePoints); err != nil {
		return fmt.Errorf("clear points: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range points {
		props, err := encodeProperties(p.Properties)
		if err != nil {
			return fmt.Errorf("point %q: %w", p.ID, err)
		}
		batch.Queue(pgInsertPoint, i, p.ID, p.Position.Lat, p.Position.Lng, p.Name,
			p.Description, p.Status, p.Group, props, p.CreatedAt, p.UpdatedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// DatabaseName returns the database named in a connection URL, for logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
