package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/spf13/cobra"
)

// CreateServiceCmd creates the service command with status and restart subcommands.
func CreateServiceCmd() *cobra.Command {
	var unit string
	var user bool
	var timeout time.Duration

	withManager := func(cmd *cobra.Command, fn func(context.Context, *systemd.Manager) error) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		manager, err := systemd.NewManager(ctx, unit, user)
		if err != nil {
			return err
		}
		defer manager.Close()
		return fn(ctx, manager)
	}

	cmd := &cobra.Command{
		Use:   "service",
		Short: "Inspect or restart the lightnode systemd unit",
	}
	cmd.PersistentFlags().StringVar(&unit, "unit", systemd.DefaultUnit, "systemd unit name")
	cmd.PersistentFlags().BoolVar(&user, "user", false, "Use the user service manager")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "D-Bus call timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the unit's active state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(ctx context.Context, m *systemd.Manager) error {
				state, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to query %s: %w", m.Unit(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Unit(), state)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restart",
		Short: "Restart the unit and wait for the job to finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(ctx context.Context, m *systemd.Manager) error {
				result, err := m.Restart(ctx)
				if err != nil {
					return fmt.Errorf("failed to restart %s: %w", m.Unit(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Unit(), result)
				if result != "done" {
					return fmt.Errorf("restart job %s", result)
				}
				return nil
			})
		},
	})

	return cmd
}
