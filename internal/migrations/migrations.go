// Package migrations carries the embedded airline schema migrations.
//
// The SQL files use unqualified table names so that the connection's
// search_path decides which schema they land in; Up creates that schema
// first, since goose needs it in place for its own version table.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"airline-admin/internal/sqlutil"
)

//go:embed *.sql
var files embed.FS

// Up ensures the target schema exists and applies every pending migration.
func Up(ctx context.Context, db *sql.DB, schema string) error {
	if schema != "" {
		stmt := "CREATE SCHEMA IF NOT EXISTS " + sqlutil.QuoteIdentifier(schema)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema %q: %w", schema, err)
		}
	}

	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Version reports the newest applied migration version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("setting migration dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
