package cmd

import (
	"fmt"

	"github.com/smazurov/lightnode/internal/led"
	"github.com/spf13/cobra"
)

// CreateSetCmd creates the set command.
func CreateSetCmd() *cobra.Command {
	var transport transportFlags
	var color string
	var flash string
	var onMs int
	var offMs int

	cmd := &cobra.Command{
		Use:   "set <type>",
		Short: "Set the state of a light",
		Long: `Requests a color and flash pattern for a light (backlight, notifications, battery, attention). ` +
			`The request goes to the running daemon over NATS unless --direct is given.`,
		Example: `  lightnode set battery --color 0xFF00FF00 --flash timed --on 500 --off 500
  lightnode set attention --color '#FFFFFF'
  lightnode set notifications --color 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			argb, err := ParseColor(color)
			if err != nil {
				return err
			}
			mode, err := led.ParseFlash(flash)
			if err != nil {
				return err
			}
			state := led.State{Color: argb, FlashMode: mode, FlashOnMs: onMs, FlashOffMs: offMs}
			if err := state.CheckFlash(); err != nil {
				return err
			}

			logger := transport.logger()
			var status led.Status

			if transport.direct {
				lightType, parseErr := led.ParseType(args[0])
				status = led.LightNotSupported
				if parseErr == nil {
					status = transport.local(logger).SetLight(lightType, state)
				}
			} else {
				client, dialErr := transport.dial(logger)
				if dialErr != nil {
					return dialErr
				}
				defer client.Close()

				ctx, cancel := transport.context(cmd.Context())
				defer cancel()
				if status, err = client.SetLight(ctx, args[0], state); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), status)
			if status != led.Success {
				return fmt.Errorf("light %q: %s", args[0], status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "0", "ARGB color (0xAARRGGBB, #RRGGBB or decimal); 0 turns the light off")
	cmd.Flags().StringVar(&flash, "flash", "none", "Flash mode (none, timed, hardware)")
	cmd.Flags().IntVar(&onMs, "on", 0, "Flash on duration in milliseconds")
	cmd.Flags().IntVar(&offMs, "off", 0, "Flash off duration in milliseconds")
	transport.register(cmd)

	return cmd
}
