// v0
// internal/app/core.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/config"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/fixture"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/kafkabus"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/metrics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/service"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/store"
)

// CoreOptions tunes how a Core is assembled.
type CoreOptions struct {
	// Console receives log lines besides the log file. Defaults to stdout.
	Console io.Writer
	Level   slog.Level
	// Publish attaches the Kafka publisher of logged scans when brokers are configured.
	Publish bool
}

// Core owns the pieces shared by the HTTP server and the CLI commands.
type Core struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Catalog *catalog.Catalog
	Service *service.Service
	Bus     *kafkabus.Bus

	store   store.Store
	pub     *kafkabus.ScanPublisher
	logFile *os.File
}

// NewCore opens the log file and the event store and builds the service.
func NewCore(ctx context.Context, cfg config.Config, opts CoreOptions) (*Core, error) {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	lf, err := openLogFile(cfg.LogFilePath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(opts.Console, lf, opts.Level)

	cat, err := catalog.Load()
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("load item catalog: %w", err)
	}

	m := metrics.New()
	cbCfg := BreakerConfig(cfg)

	storeLogger := logger.With(slog.String("component", "store"))
	raw, err := store.NewByEngine(ctx, store.Options{
		Engine:          cfg.StoreEngine,
		Path:            cfg.StorePath,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
		Timeout:         cfg.StoreTimeout,
	}, storeLogger)
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreEngine, err)
	}
	guarded := store.NewGuarded(raw, circuitbreaker.New("event-store", cbCfg, logger, m.BreakerObserver()))
	storeLogger.Info("store_opened", slog.String("engine", cfg.StoreEngine), slog.String("path", cfg.StorePath))

	c := &Core{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Catalog: cat,
		store:   guarded,
		logFile: lf,
	}

	svcOpts := service.Options{
		DefaultWindowDays: cfg.DefaultWindowDays,
		MaxWindowDays:     cfg.MaxWindowDays,
		CacheTTL:          cfg.CacheTTL,
		Logger:            logger,
		Recorder:          m,
	}
	if cfg.KafkaEnabled() {
		c.Bus = kafkabus.New(cfg.KafkaBrokers, logger)
		if opts.Publish && cfg.LoggedTopic != "" {
			breaker := circuitbreaker.New("kafka-writer", cbCfg, logger, m.BreakerObserver())
			c.pub = kafkabus.NewScanPublisherFromBus(c.Bus, cfg.LoggedTopic, breaker)
			svcOpts.Publisher = c.pub
		}
	}
	c.Service = service.New(guarded, svcOpts)
	return c, nil
}

// BreakerConfig maps the configured thresholds onto a breaker config.
func BreakerConfig(cfg config.Config) circuitbreaker.Config {
	return circuitbreaker.Config{
		MaxFailures:      cfg.BreakerMaxFailures,
		ResetTimeout:     cfg.BreakerResetTimeout,
		SuccessesToClose: cfg.BreakerSuccesses,
	}
}

// Seed logs generated fixture scans for userID through the service and
// reports how many were stored.
func (c *Core) Seed(ctx context.Context, userID string, days int, seed int64, source string) (int, error) {
	events, err := fixture.Generate(fixture.Options{
		UserID: userID,
		Days:   days,
		Ref:    time.Now().UTC(),
		Seed:   seed,
	}, c.Catalog)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := c.Service.Log(ctx, e, source); err != nil {
			return n, fmt.Errorf("seed event %d: %w", n, err)
		}
		n++
	}
	c.Logger.Info("fixture_seeded", slog.String("user_id", userID), slog.Int("days", days), slog.Int("events", n))
	return n, nil
}

// Close releases the publisher, the store and the log file.
func (c *Core) Close() error {
	var errs []error
	if c.pub != nil {
		errs = append(errs, c.pub.Close())
		c.pub = nil
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	if c.logFile != nil {
		errs = append(errs, c.logFile.Close())
		c.logFile = nil
	}
	return errors.Join(errs...)
}
