package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/repo"
	"github.com/pkordes/georeminder/testutil"
)

// backends lists every ReminderStore implementation. Each test runs once per
// backend; the Postgres one skips when TEST_DATABASE_URL is not set.
var backends = []struct {
	name string
	open func(t *testing.T) repo.ReminderStore
}{
	{name: "sqlite", open: newSQLiteStore},
	{name: "postgres", open: newPostgresStore},
}

func newSQLiteStore(t *testing.T) repo.ReminderStore {
	t.Helper()
	return repo.NewSQLiteReminderStore(testutil.NewSQLiteDB(t))
}

// newPostgresStore opens a transaction that is rolled back when the test ends.
func newPostgresStore(t *testing.T) repo.ReminderStore {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return repo.NewPostgresReminderStore(tx)
}

func reminderFixture(id string) domain.Reminder {
	return domain.Reminder{
		ID:           id,
		Title:        "Title1",
		Description:  "desc1",
		LocationName: "location1",
		Latitude:     domain.Float64(0.0),
		Longitude:    domain.Float64(0.0),
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, store repo.ReminderStore)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

// ---- Save / GetByID --------------------------------------------------------

func TestReminderStore_SaveAndGetByID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		want := reminderFixture("r1")

		require.NoError(t, store.Save(ctx, want))
		got, err := store.GetByID(ctx, "r1")

		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.LocationName, got.LocationName)
		require.NotNil(t, got.Latitude)
		require.NotNil(t, got.Longitude)
		assert.InDelta(t, 0.0, *got.Latitude, 1e-9)
		assert.InDelta(t, 0.0, *got.Longitude, 1e-9)
		assert.False(t, got.CreatedAt.IsZero())
	})
}

func TestReminderStore_Save_WithoutCoordinates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		r := reminderFixture("no-coords")
		r.Latitude, r.Longitude = nil, nil

		require.NoError(t, store.Save(ctx, r))
		got, err := store.GetByID(ctx, "no-coords")

		require.NoError(t, err)
		assert.Nil(t, got.Latitude)
		assert.Nil(t, got.Longitude)
		assert.False(t, got.HasLocation())
	})
}

func TestReminderStore_Save_UpsertOverwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		first := reminderFixture("r1")
		require.NoError(t, store.Save(ctx, first))
		before, err := store.GetByID(ctx, "r1")
		require.NoError(t, err)

		second := domain.Reminder{
			ID:           "r1",
			Title:        "Title2",
			LocationName: "location2",
			Latitude:     domain.Float64(51.5),
			Longitude:    domain.Float64(-0.12),
		}
		require.NoError(t, store.Save(ctx, second))

		got, err := store.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Title2", got.Title)
		assert.Empty(t, got.Description, "description must be overwritten, not merged")
		assert.Equal(t, "location2", got.LocationName)
		assert.InDelta(t, 51.5, *got.Latitude, 1e-9)
		assert.InDelta(t, -0.12, *got.Longitude, 1e-9)
		assert.True(t, before.CreatedAt.Equal(got.CreatedAt), "created_at keeps its first value")

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1, "re-saving the same id must not add a row")
	})
}

func TestReminderStore_Save_IgnoresCallerCreatedAt(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		r := reminderFixture("r1")
		r.CreatedAt = time.Date(1999, 12, 31, 23, 59, 0, 0, time.UTC)

		require.NoError(t, store.Save(ctx, r))
		got, err := store.GetByID(ctx, "r1")
		require.NoError(t, err)

		assert.False(t, got.CreatedAt.Equal(r.CreatedAt), "created_at is assigned by the store")
		assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Hour)
	})
}

func TestReminderStore_GetByID_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		_, err := store.GetByID(context.Background(), "ghost")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// ---- List ------------------------------------------------------------------

func TestReminderStore_List_InsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, store.Save(ctx, reminderFixture(id)))
		}

		got, err := store.List(ctx)

		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "c", got[0].ID)
		assert.Equal(t, "a", got[1].ID)
		assert.Equal(t, "b", got[2].ID)
	})
}

func TestReminderStore_List_Empty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		got, err := store.List(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

// ---- Delete / DeleteAll ----------------------------------------------------

func TestReminderStore_Delete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		require.NoError(t, store.Save(ctx, reminderFixture("r1")))
		require.NoError(t, store.Save(ctx, reminderFixture("r2")))

		require.NoError(t, store.Delete(ctx, "r1"))

		_, err := store.GetByID(ctx, "r1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetByID(ctx, "r2")
		assert.NoError(t, err)
	})
}

func TestReminderStore_Delete_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		err := store.Delete(context.Background(), "ghost")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReminderStore_DeleteAll_ReturnsDeletedIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ctx := context.Background()
		require.NoError(t, store.Save(ctx, reminderFixture("r1")))
		require.NoError(t, store.Save(ctx, reminderFixture("r2")))

		ids, err := store.DeleteAll(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"r1", "r2"}, ids, "returns exactly the rows it removed")

		got, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
		_, err = store.GetByID(ctx, "r1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReminderStore_DeleteAll_EmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repo.ReminderStore) {
		ids, err := store.DeleteAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NotNil(t, ids)
	})
}
