// v0
// internal/cli/serve.go
package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the configured ingesters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, app.CoreOptions{Console: cmd.OutOrStdout(), Level: slog.LevelInfo})
			if err != nil {
				return err
			}
			defer closeApp(application, cmd)

			application.Logger().Info("service_boot",
				slog.String("listen_address", cfg.ListenAddress),
				slog.String("log_path", cfg.LogFilePath),
				slog.String("properties_path", cfg.PropertiesPath),
				slog.String("store_engine", cfg.StoreEngine),
				slog.String("kafka_brokers", strings.Join(cfg.KafkaBrokers, ",")),
				slog.String("mqtt_broker", cfg.MQTTBroker),
				slog.Int("default_window_days", cfg.DefaultWindowDays),
				slog.Int("max_window_days", cfg.MaxWindowDays),
			)
			if err := application.Run(cmd.Context()); err != nil {
				application.Logger().Error("service_terminated", slog.Any("err", err))
				return err
			}
			application.Logger().Info("service_stopped")
			return nil
		},
	}
}

func closeApp(a *app.Application, cmd *cobra.Command) {
	if err := a.Close(); err != nil {
		cmd.PrintErrf("app_close_failed: %v\n", err)
	}
}
