package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/georeminder/internal/app"
	"github.com/pkordes/georeminder/migrations"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withProvider(cmd, func(p *goose.Provider) error {
				results, err := p.Up(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				}
				for _, r := range results {
					printResult(cmd.OutOrStdout(), r)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withProvider(cmd, func(p *goose.Provider) error {
				r, err := p.Down(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				printResult(cmd.OutOrStdout(), r)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withProvider(cmd, func(p *goose.Provider) error {
				statuses, err := p.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				for _, s := range statuses {
					applied := "pending"
					if s.State == goose.StateApplied {
						applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", filepath.Base(s.Source.Path), applied)
				}
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) withProvider(cmd *cobra.Command, fn func(p *goose.Provider) error) error {
	return c.withStore(cmd.Context(), func(s *app.Store) error {
		p, err := migrations.NewProvider(s.Dialect, s.DB)
		if err != nil {
			return err
		}
		return fn(p)
	})
}

func printResult(w io.Writer, r *goose.MigrationResult) {
	if r == nil || r.Source == nil {
		return
	}
	fmt.Fprintf(w, "%-4s %-40s %s (%s)\n", "OK", filepath.Base(r.Source.Path), r.Direction, r.Duration)
}
