package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/georeminder/internal/app"
	"github.com/pkordes/georeminder/internal/domain"
)

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every reminder as JSON, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				list, err := a.Reminders.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list reminders: %w", err)
				}
				return printJSON(cmd, list)
			})
		},
	}
}

func (c *cli) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one reminder as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				r, err := a.Reminders.GetByID(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("reminder %q not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("get reminder: %w", err)
				}
				return printJSON(cmd, r)
			})
		},
	}
}

func (c *cli) newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every reminder without --yes")
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Reminders.DeleteAll(cmd.Context()); err != nil {
					return fmt.Errorf("clear reminders: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all reminders deleted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
