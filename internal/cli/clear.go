// v0
// internal/cli/clear.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored scan event",
		Long:  "clear is the administrative bulk reset of the scan history. It is not exposed over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			core, err := opts.openCore(cmd)
			if err != nil {
				return err
			}
			defer closeCore(core, cmd.ErrOrStderr())

			n, err := core.Service.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d scan events\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
