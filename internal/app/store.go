// Package app assembles the reminder pipeline from configuration. It is the
// only place that knows which concrete store, transport and notifiers are in
// use; cmd/api and cmd/remindctl both build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/georeminder/internal/config"
	"github.com/pkordes/georeminder/internal/repo"
	"github.com/pkordes/georeminder/migrations"
)

// Store is an opened reminder store plus the database/sql handle goose needs.
type Store struct {
	Reminders repo.ReminderStore
	DB        *sql.DB
	Dialect   goose.Dialect

	close func()
}

// Close releases every connection held by the store.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the backend named by cfg.StoreDriver. When migrate
// is true, pending migrations are applied before returning.
func OpenStore(ctx context.Context, cfg config.Config, migrate bool) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		open := repo.ConnectSQLite
		if migrate {
			open = repo.OpenSQLite
		}
		db, err := open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("app.OpenStore: %w", err)
		}
		return &Store{
			Reminders: repo.NewSQLiteReminderStore(db),
			DB:        db,
			Dialect:   goose.DialectSQLite3,
			close:     func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("app.OpenStore: create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("app.OpenStore: ping: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		s := &Store{
			Reminders: repo.NewPostgresReminderStore(pool),
			DB:        db,
			Dialect:   goose.DialectPostgres,
			close: func() {
				db.Close()
				pool.Close()
			},
		}
		if migrate {
			if err := migrations.Up(ctx, goose.DialectPostgres, db); err != nil {
				s.Close()
				return nil, fmt.Errorf("app.OpenStore: %w", err)
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("app.OpenStore: unknown driver %q", cfg.StoreDriver)
	}
}
