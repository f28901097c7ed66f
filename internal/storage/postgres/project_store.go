// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

const defaultTable = "projects"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProjectStoreConfig controls the Postgres connection pool used for project rows.
type ProjectStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ProjectStore upserts crawled project rows keyed on the project hash.
type ProjectStore struct {
	pool  execCloser
	table string
}

// NewProjectStore creates a Postgres-backed ProjectStore using the provided config.
func NewProjectStore(ctx context.Context, cfg ProjectStoreConfig) (*ProjectStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProjectStore{pool: pool, table: table}, nil
}

// NewProjectStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProjectStoreWithPool(pool execCloser, table string) (*ProjectStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ProjectStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Name implements crawler.Recorder.
func (s *ProjectStore) Name() string {
	return "postgres"
}

// EnsureSchema creates the project table when it does not exist.
func (s *ProjectStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	hash        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	floor_count INTEGER NOT NULL,
	room_count  INTEGER NOT NULL,
	run_id      TEXT NOT NULL,
	crawled_at  TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// Record implements crawler.Recorder. Rows from later runs replace earlier ones.
func (s *ProjectStore) Record(ctx context.Context, run crawler.RunInfo, record crawler.ProjectRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("project store is not configured")
	}
	if record.Hash == "" {
		return fmt.Errorf("project hash is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	hash,
	name,
	floor_count,
	room_count,
	run_id,
	crawled_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)
ON CONFLICT (hash) DO UPDATE SET
	name = EXCLUDED.name,
	floor_count = EXCLUDED.floor_count,
	room_count = EXCLUDED.room_count,
	run_id = EXCLUDED.run_id,
	crawled_at = EXCLUDED.crawled_at`, s.table)

	args := []any{
		record.Hash,
		record.Name,
		record.FloorCount,
		record.RoomCount,
		run.ID,
		run.StartedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}
