// Package service contains the business logic for the reminder service.
// ReminderRepository runs store calls on the shared worker pool and reports
// outcomes as domain.Result values; ReminderService orchestrates validation,
// geofence registration and persistence.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/metrics"
	"github.com/pkordes/georeminder/internal/repo"
	"github.com/pkordes/georeminder/internal/worker"
)

// msgInternal is the Result message for a store call that panicked.
const msgInternal = "internal error"

// ReminderRepository is the Result-returning façade over a ReminderStore.
// Every call executes on the pool; the caller only waits for it.
type ReminderRepository struct {
	store   repo.ReminderStore
	pool    *worker.Pool
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewReminderRepository constructs a ReminderRepository.
// log and m may be nil.
func NewReminderRepository(store repo.ReminderStore, pool *worker.Pool, log *slog.Logger, m *metrics.Metrics) *ReminderRepository {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderRepository{store: store, pool: pool, log: log, metrics: m}
}

// Save upserts r.
func (r *ReminderRepository) Save(ctx context.Context, rem domain.Reminder) domain.Result[domain.Unit] {
	_, err := run(ctx, r, "save", func(ctx context.Context) (domain.Unit, error) {
		return domain.Unit{}, r.store.Save(ctx, rem)
	})
	if err != nil {
		return r.fail(err, "save reminder", rem.ID)
	}
	return domain.Ok(domain.Unit{})
}

// GetReminder returns the reminder with id, or an errored Result with
// message "Reminder not found!" when there is none.
func (r *ReminderRepository) GetReminder(ctx context.Context, id string) domain.Result[domain.Reminder] {
	rem, err := run(ctx, r, "get", func(ctx context.Context) (domain.Reminder, error) {
		return r.store.GetByID(ctx, id)
	})
	if err != nil {
		return failAs[domain.Reminder](r, err, "get reminder", id)
	}
	return domain.Ok(rem)
}

// GetReminders returns every reminder in insertion order.
func (r *ReminderRepository) GetReminders(ctx context.Context) domain.Result[[]domain.Reminder] {
	list, err := run(ctx, r, "list", func(ctx context.Context) ([]domain.Reminder, error) {
		return r.store.List(ctx)
	})
	if err != nil {
		return failAs[[]domain.Reminder](r, err, "list reminders", "")
	}
	return domain.Ok(list)
}

// DeleteAllReminders empties the store and returns the ids it removed.
func (r *ReminderRepository) DeleteAllReminders(ctx context.Context) domain.Result[[]string] {
	ids, err := run(ctx, r, "delete_all", func(ctx context.Context) ([]string, error) {
		return r.store.DeleteAll(ctx)
	})
	if err != nil {
		return failAs[[]string](r, err, "delete all reminders", "")
	}
	return domain.Ok(ids)
}

// DeleteReminder removes the reminder with id.
func (r *ReminderRepository) DeleteReminder(ctx context.Context, id string) domain.Result[domain.Unit] {
	_, err := run(ctx, r, "delete", func(ctx context.Context) (domain.Unit, error) {
		return domain.Unit{}, r.store.Delete(ctx, id)
	})
	if err != nil {
		return r.fail(err, "delete reminder", id)
	}
	return domain.Ok(domain.Unit{})
}

func (r *ReminderRepository) fail(err error, op, id string) domain.Result[domain.Unit] {
	return failAs[domain.Unit](r, err, op, id)
}

func run[T any](ctx context.Context, r *ReminderRepository, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := worker.Do(ctx, r.pool, fn)
	r.metrics.ObserveStore(op, err, time.Since(start))
	return v, err
}

// failAs converts a store error into an errored Result. A miss is expected
// and stays quiet; anything else is logged.
func failAs[T any](r *ReminderRepository, err error, op, id string) domain.Result[T] {
	var panicErr *worker.PanicError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Fail[T](domain.MsgReminderNotFound, err)
	case errors.As(err, &panicErr):
		r.log.Error(op, "reminder_id", id, "error", err)
		return domain.Fail[T](msgInternal, err).WithCode(domain.CodeInternal)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.log.Debug(op+" abandoned", "reminder_id", id, "error", err)
		return domain.FailErr[T](err)
	default:
		r.log.Error(op, "reminder_id", id, "error", err)
		return domain.FailErr[T](err)
	}
}
