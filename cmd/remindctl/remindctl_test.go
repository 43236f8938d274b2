package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/app"
	"github.com/pkordes/georeminder/internal/config"
	"github.com/pkordes/georeminder/internal/domain"
)

// useSQLite points the CLI at a fresh database file and returns its config.
func useSQLite(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "reminders.db"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func seed(t *testing.T, cfg config.Config, titles ...string) []domain.Reminder {
	t.Helper()
	a, err := app.New(context.Background(), cfg, nil, app.Options{Migrate: true})
	require.NoError(t, err)
	defer a.Close()

	var out []domain.Reminder
	for _, title := range titles {
		res, err := a.Reminders.Save(context.Background(), domain.NewReminder(title, "", "Somewhere", nil, nil))
		require.NoError(t, err)
		out = append(out, res.Reminder)
	}
	return out
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	cfg := useSQLite(t)
	seed(t, cfg, "first", "second")

	out, err := run(t, "list")
	require.NoError(t, err)

	var got []domain.Reminder
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
}

func TestList_Empty(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestGet(t *testing.T) {
	cfg := useSQLite(t)
	saved := seed(t, cfg, "milk")

	out, err := run(t, "get", saved[0].ID)
	require.NoError(t, err)

	var got domain.Reminder
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, saved[0].ID, got.ID)
	assert.Equal(t, "milk", got.Title)
}

func TestGet_NotFound(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `reminder "missing" not found`)
}

func TestClear(t *testing.T) {
	cfg := useSQLite(t)
	seed(t, cfg, "a", "b")

	_, err := run(t, "clear")
	require.Error(t, err, "clear must require --yes")

	out, err := run(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "all reminders deleted")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestMigrateStatus(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "00001_create_reminders.sql")
	assert.Contains(t, out, "pending")

	out, err = run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "00001_create_reminders.sql")

	out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")

	out, err = run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "no pending migrations")
}

func TestMigrateDown(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "00001_create_reminders.sql")

	out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}
