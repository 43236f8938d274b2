package service_test

import (
	"context"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/geofence"
	"github.com/pkordes/georeminder/internal/repo"
	"github.com/pkordes/georeminder/internal/service"
)

// mockStore is a hand-written test double for repo.ReminderStore.
// Each method is a function field; set only the ones your test needs.
type mockStore struct {
	save      func(ctx context.Context, r domain.Reminder) error
	getByID   func(ctx context.Context, id string) (domain.Reminder, error)
	list      func(ctx context.Context) ([]domain.Reminder, error)
	delete    func(ctx context.Context, id string) error
	deleteAll func(ctx context.Context) ([]string, error)
}

func (m *mockStore) Save(ctx context.Context, r domain.Reminder) error { return m.save(ctx, r) }
func (m *mockStore) GetByID(ctx context.Context, id string) (domain.Reminder, error) {
	return m.getByID(ctx, id)
}
func (m *mockStore) List(ctx context.Context) ([]domain.Reminder, error) { return m.list(ctx) }
func (m *mockStore) Delete(ctx context.Context, id string) error         { return m.delete(ctx, id) }
func (m *mockStore) DeleteAll(ctx context.Context) ([]string, error)     { return m.deleteAll(ctx) }

// compile-time check: mockStore must satisfy repo.ReminderStore.
var _ repo.ReminderStore = (*mockStore)(nil)

// mockRepository is a test double for service.Repository.
type mockRepository struct {
	save      func(ctx context.Context, r domain.Reminder) domain.Result[domain.Unit]
	get       func(ctx context.Context, id string) domain.Result[domain.Reminder]
	list      func(ctx context.Context) domain.Result[[]domain.Reminder]
	deleteAll func(ctx context.Context) domain.Result[[]string]
	delete    func(ctx context.Context, id string) domain.Result[domain.Unit]
}

func (m *mockRepository) Save(ctx context.Context, r domain.Reminder) domain.Result[domain.Unit] {
	return m.save(ctx, r)
}
func (m *mockRepository) GetReminder(ctx context.Context, id string) domain.Result[domain.Reminder] {
	return m.get(ctx, id)
}
func (m *mockRepository) GetReminders(ctx context.Context) domain.Result[[]domain.Reminder] {
	return m.list(ctx)
}
func (m *mockRepository) DeleteAllReminders(ctx context.Context) domain.Result[[]string] {
	return m.deleteAll(ctx)
}
func (m *mockRepository) DeleteReminder(ctx context.Context, id string) domain.Result[domain.Unit] {
	return m.delete(ctx, id)
}

var _ service.Repository = (*mockRepository)(nil)

// mockRegistrar is a test double for service.Registrar that records calls.
type mockRegistrar struct {
	register func(ctx context.Context, r domain.Reminder) (geofence.Outcome, error)
	confirm  func(ctx context.Context, id string) error
	disarm   func(ctx context.Context, ids ...string) error

	calls []string
}

func (m *mockRegistrar) Register(ctx context.Context, r domain.Reminder) (geofence.Outcome, error) {
	m.calls = append(m.calls, "register:"+r.ID)
	return m.register(ctx, r)
}
func (m *mockRegistrar) Confirm(ctx context.Context, id string) error {
	m.calls = append(m.calls, "confirm:"+id)
	if m.confirm == nil {
		return nil
	}
	return m.confirm(ctx, id)
}
func (m *mockRegistrar) Disarm(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		m.calls = append(m.calls, "disarm:"+id)
	}
	if m.disarm == nil {
		return nil
	}
	return m.disarm(ctx, ids...)
}

var _ service.Registrar = (*mockRegistrar)(nil)
