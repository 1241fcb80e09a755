package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/smazurov/lightnode/internal/updater"
	"github.com/spf13/cobra"
)

// CreateUpdateCmd creates the update command with check, apply and rollback subcommands.
func CreateUpdateCmd() *cobra.Command {
	var repo string
	var prerelease bool
	var unit string
	var user bool
	var timeout time.Duration
	var noRestart bool

	// run builds a Service for one subcommand. When restart is set the
	// service manager is connected before anything is installed.
	run := func(cmd *cobra.Command, restart bool, fn func(context.Context, *updater.Service) error) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		opts := updater.Options{Repository: repo, Prerelease: prerelease}
		if restart {
			manager, err := systemd.NewManager(ctx, unit, user)
			if err != nil {
				return fmt.Errorf("%w (use --no-restart to install without restarting)", err)
			}
			defer manager.Close()
			opts.Restarter = manager
		}

		svc, err := updater.NewService(opts)
		if err != nil {
			return err
		}
		if !svc.Enabled() {
			return errors.New("updates disabled: " + svc.DisabledReason())
		}
		if err := fn(ctx, svc); err != nil {
			return err
		}
		if restart {
			if err := svc.Restart(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s restarted\n", unit)
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update lightnode from GitHub releases",
		Long: `Checks for, installs and rolls back lightnode releases. The running binary is ` +
			`backed up before it is replaced, and the systemd unit is restarted afterwards.`,
	}
	cmd.PersistentFlags().StringVar(&repo, "repo", updater.DefaultRepository, "GitHub repository (owner/name)")
	cmd.PersistentFlags().BoolVar(&prerelease, "prerelease", false, "Consider prereleases")
	cmd.PersistentFlags().StringVar(&unit, "unit", systemd.DefaultUnit, "systemd unit to restart")
	cmd.PersistentFlags().BoolVar(&user, "user", false, "Use the user service manager")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall timeout including the download")

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report whether a newer release is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(ctx context.Context, svc *updater.Service) error {
				info, err := svc.Check(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !info.UpdateAvailable {
					fmt.Fprintf(out, "%s is up to date (latest %s)\n", info.CurrentVersion, info.LatestVersion)
					return nil
				}
				fmt.Fprintf(out, "update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
				if info.ReleaseURL != "" {
					fmt.Fprintln(out, info.ReleaseURL)
				}
				return nil
			})
		},
	})

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Install the latest release and restart the unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, !noRestart, func(ctx context.Context, svc *updater.Service) error {
				if err := svc.Apply(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", svc.Status().TargetVersion)
				return nil
			})
		},
	}
	apply.Flags().BoolVar(&noRestart, "no-restart", false, "Do not restart the unit")
	cmd.AddCommand(apply)

	rollback := &cobra.Command{
		Use:   "rollback",
		Short: "Reinstall the binary saved by the last apply and restart the unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, !noRestart, func(ctx context.Context, svc *updater.Service) error {
				if err := svc.Rollback(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", svc.Status().BackupVersion)
				return nil
			})
		},
	}
	rollback.Flags().BoolVar(&noRestart, "no-restart", false, "Do not restart the unit")
	cmd.AddCommand(rollback)

	return cmd
}
