// v0
// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/config"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/httpserver"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/ingest"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/service"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/telemetry"
)

// ServiceName labels traces and boot logs.
const ServiceName = "ecosort"

type runner struct {
	name  string
	run   func(ctx context.Context) error
	close func() error
}

// Application wires configuration, logging, routing, ingest and graceful
// shutdown of the ecosort backend.
type Application struct {
	cfg           config.Config
	core          *Core
	logger        *slog.Logger
	server        *http.Server
	health        *httpserver.HealthState
	runners       []runner
	traceShutdown func(context.Context) error
}

// New prepares a fully wired instance. Ingesters are only created for the
// brokers present in cfg.
func New(ctx context.Context, cfg config.Config, opts CoreOptions) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}

	traceShutdown, err := telemetry.Setup(ctx, ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}

	opts.Publish = true
	core, err := NewCore(ctx, cfg, opts)
	if err != nil {
		_ = traceShutdown(ctx)
		return nil, err
	}
	logger := core.Logger

	health := httpserver.NewHealthState()
	h := &httpserver.Handlers{
		Log:     logger,
		Service: core.Service,
		Catalog: core.Catalog,
		Auth:    httpserver.NewAuthenticator(cfg.JWTSecret, cfg.JWTRequired),
		Metrics: core.Metrics,
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:         logger,
		Handlers:       h,
		Health:         health,
		Ready:          core.Service.Ready,
		Metrics:        core.Metrics,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPWriteTimeout,
	}

	a := &Application{
		cfg:           cfg,
		core:          core,
		logger:        logger,
		server:        server,
		health:        health,
		traceShutdown: traceShutdown,
	}
	if err := a.wireIngest(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wireIngest() error {
	cfg := a.cfg
	core := a.core
	if cfg.KafkaEnabled() {
		proc := ingest.NewProcessor(ingest.ProcessorConfig{Source: service.SourceKafka}, core.Service, core.Catalog, core.Metrics, a.logger)
		breaker := circuitbreaker.New("kafka-reader", BreakerConfig(cfg), a.logger, core.Metrics.BreakerObserver())
		consumer, err := ingest.NewKafkaConsumer(core.Bus, ingest.KafkaConfig{
			Topic:       cfg.ScanTopic,
			GroupID:     cfg.KafkaGroupID,
			PollTimeout: cfg.KafkaPollTimeout,
		}, proc, breaker, a.logger)
		if err != nil {
			return fmt.Errorf("kafka consumer init: %w", err)
		}
		a.runners = append(a.runners, runner{name: "kafka_consumer", run: consumer.Run, close: consumer.Close})
	}
	if cfg.MQTTEnabled() {
		proc := ingest.NewProcessor(ingest.ProcessorConfig{Source: service.SourceMQTT}, core.Service, core.Catalog, core.Metrics, a.logger)
		sub, err := ingest.NewMQTTSubscriber(ingest.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			QoS:      1,
		}, proc, a.logger)
		if err != nil {
			return fmt.Errorf("mqtt subscriber init: %w", err)
		}
		a.runners = append(a.runners, runner{name: "mqtt_subscriber", run: sub.Run})
	}
	return nil
}

// Logger exposes the configured logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Handler exposes the HTTP handler tree.
func (a *Application) Handler() http.Handler { return a.server.Handler }

// Run blocks until ctx is cancelled or a component fails. Readiness is
// reported only while the server accepts traffic.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.DemoSeedDays > 0 {
		a.seedDemo(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http_server_error", slog.Any("err", err))
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	for _, r := range a.runners {
		r := r
		g.Go(func() error {
			err := r.run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error(r.name+"_error", slog.Any("err", err))
				return fmt.Errorf("%s: %w", r.name, err)
			}
			a.logger.Info(r.name + "_completed")
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown_signal")
		a.health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("server_shutdown_failed", slog.Any("err", err))
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	a.health.SetReady(true)
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("shutdown_complete")
	return nil
}

// seedDemo fills the demo user's history on an empty store.
func (a *Application) seedDemo(ctx context.Context) {
	user := a.cfg.DemoUserID
	stats, err := a.core.Service.Stats(ctx, user)
	if err != nil {
		a.logger.Warn("demo_seed_skipped", slog.Any("err", err))
		return
	}
	if stats.TotalScans > 0 {
		a.logger.Info("demo_seed_present", slog.String("user_id", user), slog.Int("scans", stats.TotalScans))
		return
	}
	if _, err := a.core.Seed(ctx, user, a.cfg.DemoSeedDays, time.Now().UnixNano(), service.SourceFixture); err != nil {
		a.logger.Warn("demo_seed_failed", slog.Any("err", err))
	}
}

// Close releases ingesters, tracing and the core resources.
func (a *Application) Close() error {
	var errs []error
	for _, r := range a.runners {
		if r.close != nil {
			errs = append(errs, r.close())
		}
	}
	a.runners = nil
	if a.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.traceShutdown(ctx))
		cancel()
		a.traceShutdown = nil
	}
	if a.core != nil {
		errs = append(errs, a.core.Close())
		a.core = nil
	}
	return errors.Join(errs...)
}
