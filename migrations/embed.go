// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the API server bootstrap and remindctl.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// FS holds every *.sql migration file, one directory per SQL dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// For returns the migration directory for a goose dialect as an fs.FS rooted
// at the migration files, ready to pass to goose.NewProvider.
func For(dialect goose.Dialect) (fs.FS, error) {
	switch dialect {
	case goose.DialectPostgres:
		return fs.Sub(FS, "postgres")
	case goose.DialectSQLite3:
		return fs.Sub(FS, "sqlite")
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

// NewProvider builds a goose provider over db for the given dialect.
func NewProvider(dialect goose.Dialect, db *sql.DB) (*goose.Provider, error) {
	fsys, err := For(dialect)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: create goose provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration for dialect to db.
func Up(ctx context.Context, dialect goose.Dialect, db *sql.DB) error {
	provider, err := NewProvider(dialect, db)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
