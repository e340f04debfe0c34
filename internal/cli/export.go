// v0
// internal/cli/export.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		user   string
		days   int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's scan history and analytics to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			core, err := opts.openCore(cmd)
			if err != nil {
				return err
			}
			defer closeCore(core, cmd.ErrOrStderr())

			if days == 0 {
				days = core.Service.DefaultWindowDays()
			}
			doc, err := core.Service.Export(cmd.Context(), user, days)
			if err != nil {
				return err
			}
			rendered, err := export.Render(doc, want)
			if err != nil {
				return err
			}
			if rendered.Fallback != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "spreadsheet export failed, wrote JSON instead: %v\n", rendered.Fallback)
			}

			path := out
			if path == "" {
				path = export.Filename(doc.ExportDate, rendered.Format)
			} else if rendered.Format != want {
				path = path[:len(path)-len(filepath.Ext(path))] + "." + string(rendered.Format)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(path, rendered.Body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			core.Metrics.Exported(string(rendered.Format))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(doc.Events), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (empty exports every user)")
	cmd.Flags().IntVar(&days, "days", 0, "Window length in days (default: configured default)")
	cmd.Flags().StringVar(&format, "format", "xlsx", "Output format: xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: ecosort-data-<date>.<format>)")
	return cmd
}
