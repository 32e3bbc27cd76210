package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/mappoints/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS map_points (
	seq          INTEGER PRIMARY KEY,
	id           TEXT NOT NULL,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	point_group  TEXT NOT NULL DEFAULT '',
	properties   TEXT NOT NULL DEFAULT '{}',
	created_at   INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS map_points_id_idx ON map_points (id);
`

const (
	sqliteSelectPoints = `SELECT id, lat, lng, name, description, status, point_group, properties, created_at, updated_at
FROM map_points ORDER BY seq`
	sqliteInsertPoint = `INSERT INTO map_points
(seq, id, lat, lng, name, description, status, point_group, properties, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// SQLite stores the dataset in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load returns the stored points in insertion order.
func (s *SQLite) Load(ctx context.Context) ([]core.PointRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectPoints)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	defer rows.Close()

	points := []core.PointRecord{}
	for rows.Next() {
		var (
			p   core.PointRecord
			raw string
		)
		if err := rows.Scan(&p.ID, &p.Position.Lat, &p.Position.Lng, &p.Name, &p.Description,
			&p.Status, &p.Group, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if p.Properties, err = decodeProperties([]byte(raw)); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.ID, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	return points, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLite) Save(ctx context.Context, points []core.PointRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM map_points`); err != nil {
		return fmt.Errorf("clear points: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertPoint)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range points {
		props, err := encodeProperties(p.Properties)
		if err != nil {
			return fmt.Errorf("point %q: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Position.Lat, p.Position.Lng, p.Name,
			p.Description, p.Status, p.Group, props, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("insert point %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
