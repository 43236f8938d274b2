// Package repo contains all database access logic for the reminder service.
// ReminderStore has a Postgres and a SQLite implementation; both are plain
// SQL and type mapping with no business logic.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/georeminder/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReminderStore is the system of record for reminders.
// The service layer depends on this interface, not on a concrete backend.
type ReminderStore interface {
	// Save upserts a reminder keyed by ID. Re-saving an existing ID
	// overwrites every mutable field; CreatedAt is assigned on first insert
	// and r.CreatedAt is never read.
	Save(ctx context.Context, r domain.Reminder) error

	// GetByID returns domain.ErrNotFound if no reminder has that ID.
	GetByID(ctx context.Context, id string) (domain.Reminder, error)

	// List returns every reminder in insertion order. Never nil.
	List(ctx context.Context) ([]domain.Reminder, error)

	// Delete removes one reminder. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every reminder and returns the deleted ids in one
	// statement. Succeeds with an empty slice on an empty store.
	DeleteAll(ctx context.Context) ([]string, error)
}

// pgReminderStore is the Postgres implementation of ReminderStore.
type pgReminderStore struct {
	db db
}

// NewPostgresReminderStore constructs a ReminderStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresReminderStore(db db) ReminderStore {
	return &pgReminderStore{db: db}
}

// Save inserts or overwrites a reminder in a single statement, so a failed
// write leaves the previous row untouched.
func (s *pgReminderStore) Save(ctx context.Context, r domain.Reminder) error {
	const q = `
		INSERT INTO reminders (id, title, description, location_name, latitude, longitude)
		VALUES (@id, @title, @description, @location_name, @latitude, @longitude)
		ON CONFLICT (id) DO UPDATE
		SET title         = EXCLUDED.title,
		    description   = EXCLUDED.description,
		    location_name = EXCLUDED.location_name,
		    latitude      = EXCLUDED.latitude,
		    longitude     = EXCLUDED.longitude`

	args := pgx.NamedArgs{
		"id":            r.ID,
		"title":         r.Title,
		"description":   r.Description,
		"location_name": r.LocationName,
		"latitude":      r.Latitude, // nil becomes NULL
		"longitude":     r.Longitude,
	}

	if _, err := s.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ReminderStore.Save: %w", err)
	}
	return nil
}

func (s *pgReminderStore) GetByID(ctx context.Context, id string) (domain.Reminder, error) {
	const q = `
		SELECT id, title, description, location_name, latitude, longitude, created_at
		FROM reminders
		WHERE id = @id`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanPgReminder(row)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("repo.ReminderStore.GetByID: %w", err)
	}
	return result, nil
}

func (s *pgReminderStore) List(ctx context.Context) ([]domain.Reminder, error) {
	const q = `
		SELECT id, title, description, location_name, latitude, longitude, created_at
		FROM reminders
		ORDER BY seq`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.List: %w", err)
	}
	defer rows.Close()

	reminders := []domain.Reminder{}
	for rows.Next() {
		r, err := scanPgReminder(rows)
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

func (s *pgReminderStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reminders WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ReminderStore.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReminderStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *pgReminderStore) DeleteAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `DELETE FROM reminders RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.DeleteAll: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderStore.DeleteAll: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPgReminder maps a single Postgres row into a domain.Reminder,
// converting the nullable coordinate columns.
func scanPgReminder(s scanner) (domain.Reminder, error) {
	var (
		r        domain.Reminder
		lat, lng pgtype.Float8
	)

	err := s.Scan(&r.ID, &r.Title, &r.Description, &r.LocationName, &lat, &lng, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reminder{}, domain.ErrNotFound
		}
		return domain.Reminder{}, err
	}

	if lat.Valid && lng.Valid {
		r.Latitude = domain.Float64(lat.Float64)
		r.Longitude = domain.Float64(lng.Float64)
	}
	return r, nil
}
