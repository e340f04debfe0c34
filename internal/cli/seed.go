// v0
// internal/cli/seed.go
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/service"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		user string
		days int
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Log generated demo scans for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			if days < 1 {
				return fmt.Errorf("--days must be positive")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			core, err := opts.openCore(cmd)
			if err != nil {
				return err
			}
			defer closeCore(core, cmd.ErrOrStderr())

			n, err := core.Seed(cmd.Context(), user, days, seed, service.SourceCLI)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d scans over %d days for %s\n", n, days, user)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id to seed")
	cmd.Flags().IntVar(&days, "days", 30, "Number of days ending today")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: current time)")
	return cmd
}
