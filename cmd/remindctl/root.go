package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkordes/georeminder/internal/app"
	"github.com/pkordes/georeminder/internal/config"
)

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "remindctl",
		Short: "remindctl manages the reminder store",
		Long: `remindctl runs schema migrations and inspects or clears stored reminders.

Configuration comes from the environment: STORE_DRIVER, DATABASE_URL,
SQLITE_PATH and LOG_LEVEL are honoured exactly as by the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			return nil
		},
	}

	root.AddCommand(c.newMigrateCmd())
	root.AddCommand(c.newListCmd())
	root.AddCommand(c.newGetCmd())
	root.AddCommand(c.newClearCmd())
	return root
}

// withApp builds the pipeline for one command and tears it down afterwards.
// A SQLite file has no separate deploy step, so it is migrated on demand;
// Postgres must be migrated explicitly with "migrate up".
func (c *cli) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, c.cfg, c.log, app.Options{
		Migrate: c.cfg.StoreDriver == config.DriverSQLite,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withStore opens only the store, without running migrations.
func (c *cli) withStore(ctx context.Context, fn func(s *app.Store) error) error {
	s, err := app.OpenStore(ctx, c.cfg, false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
