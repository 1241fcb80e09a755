package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	lnats "github.com/smazurov/lightnode/internal/nats"
	"github.com/spf13/cobra"
)

// CreateWatchCmd creates the watch command.
func CreateWatchCmd() *cobra.Command {
	var transport transportFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print light states as the daemon applies them",
		Long:  `Subscribes to lightnode.lights.state.* and prints one JSON line per applied request until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := transport.dial(transport.logger())
			if err != nil {
				return err
			}
			defer client.Close()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := json.NewEncoder(cmd.OutOrStdout())
			return client.WatchStates(ctx, func(m lnats.StateMessage) {
				if err := out.Encode(m); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			})
		},
	}

	cmd.Flags().StringVar(&transport.url, "nats-url", DefaultNATSURL, "NATS server of the running daemon")
	cmd.Flags().DurationVar(&transport.timeout, "timeout", 2*time.Second, "Connect timeout")
	return cmd
}
