// v0
// internal/cli/report.go
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		user  string
		days  int
		basis string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard report of a user as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, ok := analytics.ParseBasis(basis)
			if !ok {
				return fmt.Errorf("invalid --basis %q: want count or weight", basis)
			}
			core, err := opts.openCore(cmd)
			if err != nil {
				return err
			}
			defer closeCore(core, cmd.ErrOrStderr())

			if days == 0 {
				days = core.Service.DefaultWindowDays()
			}
			dash, err := core.Service.Dashboard(cmd.Context(), user, days, b)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dash)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (empty reports every user)")
	cmd.Flags().IntVar(&days, "days", 0, "Window length in days (default: configured default)")
	cmd.Flags().StringVar(&basis, "basis", "count", "Share basis: count or weight")
	return cmd
}
