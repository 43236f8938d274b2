package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/geofence"
)

// User-facing messages of the reminder use cases.
const (
	MsgReminderSaved = "Reminder Saved !"
	MsgListFailed    = "There was an error getting the reminders"
)

// Repository is the Result-returning reminder port. *ReminderRepository
// implements it; tests substitute a mock.
type Repository interface {
	Save(ctx context.Context, r domain.Reminder) domain.Result[domain.Unit]
	GetReminder(ctx context.Context, id string) domain.Result[domain.Reminder]
	GetReminders(ctx context.Context) domain.Result[[]domain.Reminder]
	DeleteAllReminders(ctx context.Context) domain.Result[[]string]
	DeleteReminder(ctx context.Context, id string) domain.Result[domain.Unit]
}

var _ Repository = (*ReminderRepository)(nil)

// Registrar arms and disarms geofences. *geofence.Manager implements it.
type Registrar interface {
	Register(ctx context.Context, r domain.Reminder) (geofence.Outcome, error)
	// Confirm tells the transport the reminder is stored, releasing any
	// initial ENTER it held back.
	Confirm(ctx context.Context, id string) error
	Disarm(ctx context.Context, ids ...string) error
}

var _ Registrar = (*geofence.Manager)(nil)

// SaveResult is what a successful or refused save reports back to the UI.
type SaveResult struct {
	Reminder domain.Reminder  `json:"reminder"`
	Outcome  geofence.Outcome `json:"outcome"`
	Message  string           `json:"message,omitempty"`
}

// ReminderService implements the reminder use cases.
type ReminderService struct {
	repo      Repository
	geofences Registrar
	log       *slog.Logger
}

// NewReminderService constructs a ReminderService. log may be nil.
func NewReminderService(r Repository, g Registrar, log *slog.Logger) *ReminderService {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderService{repo: r, geofences: g, log: log}
}

// Save validates r, arms its geofence, and only then persists it.
//
// Returns domain.ErrValidation before touching the transport or the store.
// A Blocked or ArmFailed registration is returned as an error and nothing is
// stored. A reminder without coordinates is stored but not armed.
// If persisting fails after arming, the trigger is disarmed again. Once the
// row is stored an armed trigger is confirmed, so an initial ENTER can never
// reach the processor before the reminder is readable.
func (s *ReminderService) Save(ctx context.Context, r domain.Reminder) (SaveResult, error) {
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	if err := r.Validate(); err != nil {
		return SaveResult{}, err
	}

	outcome, err := s.geofences.Register(ctx, r)
	if err != nil {
		return SaveResult{Reminder: r, Outcome: outcome}, fmt.Errorf("service.ReminderService.Save: %w", err)
	}

	if err := s.repo.Save(ctx, r).Err(); err != nil {
		if outcome == geofence.OutcomeArmed && !isContextErr(err) {
			s.compensate(ctx, r.ID)
		}
		return SaveResult{Reminder: r, Outcome: outcome}, fmt.Errorf("service.ReminderService.Save: %w", err)
	}

	switch outcome {
	case geofence.OutcomeArmed:
		if err := s.geofences.Confirm(context.WithoutCancel(ctx), r.ID); err != nil {
			s.log.Warn("confirm geofence", "reminder_id", r.ID, "error", err)
		}
	case geofence.OutcomeSkipped:
		// An earlier version of this reminder may still be armed.
		s.disarm(ctx, r.ID)
	}
	if stored, ok := s.repo.GetReminder(ctx, r.ID).Value(); ok {
		r = stored
	}
	s.log.Info("reminder saved", "reminder_id", r.ID, "outcome", string(outcome))
	return SaveResult{Reminder: r, Outcome: outcome, Message: MsgReminderSaved}, nil
}

// GetByID returns a single reminder.
// Returns an error wrapping domain.ErrNotFound when there is none.
func (s *ReminderService) GetByID(ctx context.Context, id string) (domain.Reminder, error) {
	r, err := s.repo.GetReminder(ctx, id).Unwrap()
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("service.ReminderService.GetByID: %w", err)
	}
	return r, nil
}

// List returns every reminder in insertion order. Never nil on success.
func (s *ReminderService) List(ctx context.Context) ([]domain.Reminder, error) {
	list, err := s.repo.GetReminders(ctx).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("service.ReminderService.List: %w", err)
	}
	if list == nil {
		list = []domain.Reminder{}
	}
	return list, nil
}

// Delete removes a reminder and disarms its trigger.
// Returns an error wrapping domain.ErrNotFound when there is none.
// A failed disarm is logged; the delete still succeeds.
func (s *ReminderService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteReminder(ctx, id).Err(); err != nil {
		return fmt.Errorf("service.ReminderService.Delete: %w", err)
	}
	s.disarm(ctx, id)
	return nil
}

// DeleteAll removes every reminder and disarms the triggers of exactly the
// rows the store deleted.
func (s *ReminderService) DeleteAll(ctx context.Context) error {
	ids, err := s.repo.DeleteAllReminders(ctx).Unwrap()
	if err != nil {
		return fmt.Errorf("service.ReminderService.DeleteAll: %w", err)
	}
	s.disarm(ctx, ids...)
	return nil
}

func (s *ReminderService) compensate(ctx context.Context, id string) {
	if err := s.geofences.Disarm(context.WithoutCancel(ctx), id); err != nil {
		s.log.Error("disarm after failed save", "reminder_id", id, "error", err)
		return
	}
	s.log.Warn("geofence disarmed after failed save", "reminder_id", id)
}

func (s *ReminderService) disarm(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	if err := s.geofences.Disarm(context.WithoutCancel(ctx), ids...); err != nil {
		s.log.Warn("disarm deleted reminders", "count", len(ids), "error", err)
	}
}

// A cancelled wait does not mean the write failed; the pool finishes it.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
