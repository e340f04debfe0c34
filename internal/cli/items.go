// v0
// internal/cli/items.go
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
)

func newItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items [code]",
		Short: "List the reference item catalog or show one item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load()
			if err != nil {
				return err
			}
			items := cat.Items()
			if len(args) == 1 {
				item, err := cat.Lookup(args[0])
				if err != nil {
					return err
				}
				items = []catalog.Item{item}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCATEGORY\tNAME\tTYPICAL KG")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\n", it.Code, it.Category, it.Name, it.TypicalWeightKg)
			}
			return tw.Flush()
		},
	}
}
