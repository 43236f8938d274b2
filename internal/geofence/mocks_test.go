package geofence_test

import (
	"context"
	"sync"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/geofence"
)

// mockTransport is a hand-written test double for geofence.Transport.
// Set only the function fields a test needs.
type mockTransport struct {
	arm    func(ctx context.Context, spec geofence.TriggerSpec, target *geofence.Target) error
	disarm func(ctx context.Context, ids ...string) error
}

func (m *mockTransport) Arm(ctx context.Context, spec geofence.TriggerSpec, target *geofence.Target) error {
	return m.arm(ctx, spec, target)
}
func (m *mockTransport) Disarm(ctx context.Context, ids ...string) error {
	return m.disarm(ctx, ids...)
}

var _ geofence.Transport = (*mockTransport)(nil)

// mockHoldingTransport also holds initial triggers.
type mockHoldingTransport struct {
	mockTransport
	releaseInitial func(ctx context.Context, id string) error
}

func (m *mockHoldingTransport) ReleaseInitial(ctx context.Context, id string) error {
	return m.releaseInitial(ctx, id)
}

var _ geofence.InitialTriggerHolder = (*mockHoldingTransport)(nil)

// settingsSequence returns its errors in order, repeating the last one.
type settingsSequence struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *settingsSequence) Check(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	if i >= len(s.errs) {
		i = len(s.errs) - 1
	}
	return s.errs[i]
}

var _ geofence.SettingsChecker = (*settingsSequence)(nil)

// recordingResolver records prompts and notices.
type recordingResolver struct {
	mu       sync.Mutex
	prompts  int
	notices  []string
	onPrompt func()
}

func (r *recordingResolver) Resolve(context.Context, *geofence.ResolvableError) error {
	r.mu.Lock()
	r.prompts++
	r.mu.Unlock()
	if r.onPrompt != nil {
		r.onPrompt()
	}
	return nil
}

func (r *recordingResolver) Inform(_ context.Context, notice string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

var _ geofence.Resolver = (*recordingResolver)(nil)

// mockLookup is a test double for geofence.ReminderLookup.
type mockLookup struct {
	get func(ctx context.Context, id string) domain.Result[domain.Reminder]
}

func (m *mockLookup) GetReminder(ctx context.Context, id string) domain.Result[domain.Reminder] {
	return m.get(ctx, id)
}

var _ geofence.ReminderLookup = (*mockLookup)(nil)

// ---- helpers ---------------------------------------------------------------

func locatedReminder(id string) domain.Reminder {
	return domain.Reminder{
		ID:           id,
		Title:        "Pick up parcel",
		LocationName: "Post office",
		Latitude:     domain.Float64(48.8584),
		Longitude:    domain.Float64(2.2945),
	}
}
