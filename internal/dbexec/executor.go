// Package dbexec provides the query execution abstraction the rest of the
// application is written against: a connected executor offering context-aware
// query and exec calls, returning rows with their column descriptors.
package dbexec

import (
	"context"
	"database/sql"
)

// Rows abstracts sql.Rows. Columns is part of the contract because result
// descriptors drive both the attribute catalog probe and row mapping.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// QueryExecutor abstracts SQL execution so tests can substitute mocks and
// instrumentation can wrap the real handle.
type QueryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// StandardExecutor executes queries directly against a pooled database
// handle. Each call checks a connection out of the pool and the row
// iterator's Close returns it, so acquisition stays scoped to the call.
type StandardExecutor struct {
	db *sql.DB
}

// NewStandardExecutor creates an executor that runs queries directly against the database.
func NewStandardExecutor(db *sql.DB) *StandardExecutor {
	return &StandardExecutor{db: db}
}

func (e *StandardExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	return e.db.QueryContext(ctx, query, args...)
}

func (e *StandardExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	return e.db.ExecContext(ctx, query, args...)
}
