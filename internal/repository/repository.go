// Package repository persists plans and manual distances in Postgres.
package repository

import (
	"context"
	"database/sql"
)

// DB is the subset of *sql.DB and *sql.Tx the repositories use.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor runs fn atomically. *database.DB implements it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// inTx runs fn inside a transaction when db supports one.
func inTx(ctx context.Context, db DB, fn func(DB) error) error {
	if t, ok := db.(Transactor); ok {
		return t.Transaction(ctx, func(tx *sql.Tx) error { return fn(tx) })
	}
	return fn(db)
}
