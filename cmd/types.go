package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CreateTypesCmd creates the types command.
func CreateTypesCmd() *cobra.Command {
	var transport transportFlags

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List supported light types in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := transport.logger()

			var names []string
			if transport.direct {
				for _, t := range transport.local(logger).SupportedTypes() {
					names = append(names, t.String())
				}
			} else {
				client, err := transport.dial(logger)
				if err != nil {
					return err
				}
				defer client.Close()

				ctx, cancel := transport.context(cmd.Context())
				defer cancel()
				if names, err = client.SupportedTypes(ctx); err != nil {
					return err
				}
			}

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	transport.register(cmd)
	return cmd
}
