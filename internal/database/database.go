// Package database wraps the Postgres connection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rodaje/rodaje/internal/config"
	"github.com/rodaje/rodaje/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const slowQueryThreshold = 100 * time.Millisecond

// DB wraps *sql.DB with slow-query logging.
type DB struct {
	*sql.DB
	cfg *config.DatabaseConfig
}

// New opens and pings the database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("database connected")

	return &DB{DB: db, cfg: cfg}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.DB != nil {
		logger.Info().Msg("closing database")
		return db.DB.Close()
	}
	return nil
}

// Health pings the database.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// schema creates the persisted plan tables. plans holds one header per project (plan id,
// unassigned scenes, plan-level warnings); shooting_days holds one row per day of that plan;
// location_distances holds manual distance overrides.
const schema = `
CREATE TABLE IF NOT EXISTS plans (
	project_id  TEXT PRIMARY KEY,
	plan_id     UUID NOT NULL,
	strategy    TEXT NOT NULL DEFAULT '',
	unassigned  JSONB NOT NULL DEFAULT '[]',
	warnings    JSONB NOT NULL DEFAULT '[]',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS shooting_days (
	id              UUID PRIMARY KEY,
	project_id      TEXT NOT NULL,
	day_number      INTEGER NOT NULL,
	shooting_date   DATE,
	location_name   TEXT NOT NULL DEFAULT '',
	location_id     TEXT NOT NULL DEFAULT '',
	locations       TEXT[] NOT NULL DEFAULT '{}',
	time_of_day     TEXT NOT NULL,
	scenes          JSONB NOT NULL,
	characters      JSONB NOT NULL,
	total_eighths   INTEGER NOT NULL,
	estimated_hours NUMERIC(5,1) NOT NULL,
	warnings        JSONB NOT NULL DEFAULT '[]',
	notes           TEXT NOT NULL DEFAULT '',
	strategy        TEXT NOT NULL DEFAULT '',
	location_pinned BOOLEAN NOT NULL DEFAULT false,
	tod_pinned      BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, day_number)
);

ALTER TABLE shooting_days ADD COLUMN IF NOT EXISTS location_pinned BOOLEAN NOT NULL DEFAULT false;
ALTER TABLE shooting_days ADD COLUMN IF NOT EXISTS tod_pinned BOOLEAN NOT NULL DEFAULT false;

CREATE TABLE IF NOT EXISTS location_distances (
	project_id       TEXT NOT NULL,
	location_a       TEXT NOT NULL,
	location_b       TEXT NOT NULL,
	distance_km      NUMERIC(8,2) NOT NULL,
	duration_minutes INTEGER NOT NULL,
	source           TEXT NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, location_a, location_b),
	CHECK (location_a < location_b)
);
`

// Migrate creates missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Transaction runs fn in a transaction, rolling back on error or panic.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ExecContext logs statements slower than 100ms.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return result, err
}

// QueryContext logs queries slower than 100ms.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return rows, err
}

// QueryRowContext runs a single-row query.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

func logSlow(query string, d time.Duration) {
	if d <= slowQueryThreshold {
		return
	}
	logger.Warn().
		Str("query", truncateQuery(query)).
		Dur("duration", d).
		Msg("slow query")
}

func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}
