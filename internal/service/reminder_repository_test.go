package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/repo"
	"github.com/pkordes/georeminder/internal/service"
	"github.com/pkordes/georeminder/internal/worker"
	"github.com/pkordes/georeminder/testutil"
)

func newPool(t *testing.T) *worker.Pool {
	t.Helper()
	p := worker.New(4)
	t.Cleanup(p.Close)
	return p
}

// newSQLiteRepository wires a real in-memory store behind the façade.
func newSQLiteRepository(t *testing.T) *service.ReminderRepository {
	t.Helper()
	store := repo.NewSQLiteReminderStore(testutil.NewSQLiteDB(t))
	return service.NewReminderRepository(store, newPool(t), nil, nil)
}

func fixture(id string) domain.Reminder {
	return domain.Reminder{
		ID:           id,
		Title:        "Return library books",
		Description:  "Two overdue",
		LocationName: "Central Library",
		Latitude:     domain.Float64(40.7532),
		Longitude:    domain.Float64(-73.9822),
	}
}

func TestReminderRepository_SaveThenGet(t *testing.T) {
	r := newSQLiteRepository(t)
	ctx := context.Background()

	require.True(t, r.Save(ctx, fixture("r-1")).IsSuccess())

	got, ok := r.GetReminder(ctx, "r-1").Value()
	require.True(t, ok)
	assert.Equal(t, "Return library books", got.Title)
	assert.Equal(t, 40.7532, *got.Latitude)
}

func TestReminderRepository_GetReminder_NotFound(t *testing.T) {
	r := newSQLiteRepository(t)

	res := r.GetReminder(context.Background(), "missing")

	require.False(t, res.IsSuccess())
	assert.Equal(t, domain.MsgReminderNotFound, res.Failure().Message)
	assert.Equal(t, domain.CodeNotFound, res.Failure().Code)
	assert.ErrorIs(t, res.Err(), domain.ErrNotFound)
}

func TestReminderRepository_GetReminders_InsertionOrder(t *testing.T) {
	r := newSQLiteRepository(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.True(t, r.Save(ctx, fixture(id)).IsSuccess())
	}

	list, err := r.GetReminders(ctx).Unwrap()

	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, rem := range list {
		ids = append(ids, rem.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestReminderRepository_DeleteAllReminders(t *testing.T) {
	r := newSQLiteRepository(t)
	ctx := context.Background()
	require.True(t, r.Save(ctx, fixture("a")).IsSuccess())

	ids, err := r.DeleteAllReminders(ctx).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	list, err := r.GetReminders(ctx).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReminderRepository_DeleteReminder(t *testing.T) {
	r := newSQLiteRepository(t)
	ctx := context.Background()
	require.True(t, r.Save(ctx, fixture("a")).IsSuccess())

	require.True(t, r.DeleteReminder(ctx, "a").IsSuccess())

	res := r.DeleteReminder(ctx, "a")
	assert.ErrorIs(t, res.Err(), domain.ErrNotFound)
}

func TestReminderRepository_StorageErrorBecomesErrorResult(t *testing.T) {
	boom := errors.New("database disk image is malformed")
	store := &mockStore{list: func(context.Context) ([]domain.Reminder, error) { return nil, boom }}
	r := service.NewReminderRepository(store, newPool(t), nil, nil)

	res := r.GetReminders(context.Background())

	require.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Err(), boom)
	assert.Zero(t, res.Failure().Code)
}

func TestReminderRepository_PanicBecomesInternalError(t *testing.T) {
	store := &mockStore{getByID: func(context.Context, string) (domain.Reminder, error) {
		panic("corrupt row")
	}}
	r := service.NewReminderRepository(store, newPool(t), nil, nil)

	res := r.GetReminder(context.Background(), "a")

	require.False(t, res.IsSuccess())
	assert.Equal(t, domain.CodeInternal, res.Failure().Code)
	var pe *worker.PanicError
	assert.ErrorAs(t, res.Err(), &pe)
}

func TestReminderRepository_CancelledWaitStillCompletesWrite(t *testing.T) {
	release := make(chan struct{})
	written := make(chan domain.Reminder, 1)
	store := &mockStore{save: func(_ context.Context, r domain.Reminder) error {
		<-release
		written <- r
		return nil
	}}
	r := service.NewReminderRepository(store, newPool(t), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan domain.Result[domain.Unit], 1)
	go func() { done <- r.Save(ctx, fixture("a")) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	res := <-done
	assert.ErrorIs(t, res.Err(), context.Canceled)

	close(release)
	select {
	case got := <-written:
		assert.Equal(t, "a", got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete after the caller stopped waiting")
	}
}

func TestReminderRepository_RunsOnPoolNotCaller(t *testing.T) {
	callerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var storeCtx context.Context
	store := &mockStore{deleteAll: func(ctx context.Context) ([]string, error) {
		storeCtx = ctx
		return []string{}, nil
	}}
	r := service.NewReminderRepository(store, newPool(t), nil, nil)

	require.True(t, r.DeleteAllReminders(callerCtx).IsSuccess())
	cancel()

	assert.NoError(t, storeCtx.Err(), "store call must not inherit the caller's cancellation")
}
