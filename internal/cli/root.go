// v0
// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/app"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/config"
)

type rootOptions struct {
	configPath string
	engine     string
	storePath  string
	verbose    bool
}

// NewRootCmd builds the ecosort command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ecosort",
		Short:         "ecosort logs waste scans and reports recycling analytics",
		Long:          "ecosort is the backend of the EcoSort waste-sorting assistant: an HTTP API, Kafka and MQTT ingest, and administrative commands over the scan history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the properties file (default $ECOSORT_PROPERTIES_PATH or ecosort.properties)")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "Override the store engine: memory, json, sqlite or mongo")
	root.PersistentFlags().StringVar(&opts.storePath, "store-path", "", "Override the store file path")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at info level on stderr")

	root.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newClearCmd(opts),
		newExportCmd(opts),
		newReportCmd(opts),
		newItemsCmd(),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func (o *rootOptions) load() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if strings.TrimSpace(o.configPath) != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	if o.engine != "" {
		cfg.StoreEngine = strings.ToLower(o.engine)
	}
	if o.storePath != "" {
		cfg.StorePath = o.storePath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openCore builds the shared core for one-shot commands, keeping stdout for results.
func (o *rootOptions) openCore(cmd *cobra.Command) (*app.Core, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return app.NewCore(cmd.Context(), cfg, app.CoreOptions{Console: cmd.ErrOrStderr(), Level: o.level()})
}

func (o *rootOptions) level() slog.Level {
	if o.verbose {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func closeCore(core *app.Core, w io.Writer) {
	if err := core.Close(); err != nil {
		fmt.Fprintf(w, "close: %v\n", err)
	}
}
