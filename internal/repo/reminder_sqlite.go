package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/migrations"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// OpenSQLite opens (or creates) the SQLite database at path and applies all
// pending migrations. Pass MemoryDSN for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := ConnectSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, goose.DialectSQLite3, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
	}
	return db, nil
}

// ConnectSQLite opens the database at path without touching its schema.
//
// An in-memory database lives inside a single connection, so the pool is
// capped at one connection; file databases switch to WAL for concurrent readers.
func ConnectSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo.ConnectSQLite: open: %w", err)
	}

	if path == MemoryDSN {
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.ConnectSQLite: set WAL mode: %w", err)
	}
	return db, nil
}

// sqliteReminderStore is the SQLite implementation of ReminderStore.
type sqliteReminderStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteReminderStore constructs a ReminderStore backed by a migrated SQLite database.
func NewSQLiteReminderStore(db *sql.DB) ReminderStore {
	return &sqliteReminderStore{db: db, now: time.Now}
}

// Save upserts in one statement; created_at is only written on first insert.
func (s *sqliteReminderStore) Save(ctx context.Context, r domain.Reminder) error {
	const q = `
		INSERT INTO reminders (id, title, description, location_name, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET title         = excluded.title,
		    description   = excluded.description,
		    location_name = excluded.location_name,
		    latitude      = excluded.latitude,
		    longitude     = excluded.longitude`

	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.Title, r.Description, r.LocationName,
		nullFloat(r.Latitude), nullFloat(r.Longitude), createdAt)
	if err != nil {
		return fmt.Errorf("repo.ReminderStore.Save: %w", err)
	}
	return nil
}

func (s *sqliteReminderStore) GetByID(ctx context.Context, id string) (domain.Reminder, error) {
	const q = `
		SELECT id, title, description, location_name, latitude, longitude, created_at
		FROM reminders
		WHERE id = ?`

	result, err := scanSQLiteReminder(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("repo.ReminderStore.GetByID: %w", err)
	}
	return result, nil
}

func (s *sqliteReminderStore) List(ctx context.Context) ([]domain.Reminder, error) {
	const q = `
		SELECT id, title, description, location_name, latitude, longitude, created_at
		FROM reminders
		ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.List: %w", err)
	}
	defer rows.Close()

	reminders := []domain.Reminder{}
	for rows.Next() {
		r, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReminderStore.List: scan: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.List: rows: %w", err)
	}
	return reminders, nil
}

func (s *sqliteReminderStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("repo.ReminderStore.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repo.ReminderStore.Delete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.ReminderStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *sqliteReminderStore) DeleteAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `DELETE FROM reminders RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.DeleteAll: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.ReminderStore.DeleteAll: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.DeleteAll: rows: %w", err)
	}
	return ids, nil
}

func scanSQLiteReminder(s scanner) (domain.Reminder, error) {
	var (
		r         domain.Reminder
		lat, lng  sql.NullFloat64
		createdAt string
	)

	err := s.Scan(&r.ID, &r.Title, &r.Description, &r.LocationName, &lat, &lng, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reminder{}, domain.ErrNotFound
		}
		return domain.Reminder{}, err
	}

	if lat.Valid && lng.Valid {
		r.Latitude = domain.Float64(lat.Float64)
		r.Longitude = domain.Float64(lng.Float64)
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return r, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
