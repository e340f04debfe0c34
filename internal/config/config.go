// v0
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures all runtime settings of the ecosort backend. Values come
// from defaults, then an optional properties file, then ECOSORT_* variables.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string `env:"ECOSORT_LISTEN_ADDRESS"`
	// LogFilePath is the absolute or relative path to the log file.
	LogFilePath      string        `env:"ECOSORT_LOG_PATH"`
	HTTPReadTimeout  time.Duration `env:"ECOSORT_HTTP_READ_TIMEOUT"`
	HTTPWriteTimeout time.Duration `env:"ECOSORT_HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout  time.Duration `env:"ECOSORT_SHUTDOWN_TIMEOUT"`
	// PropertiesPath records the path used to load property values.
	PropertiesPath string

	// StoreEngine selects memory, json, sqlite or mongo.
	StoreEngine     string        `env:"ECOSORT_STORE_ENGINE"`
	StorePath       string        `env:"ECOSORT_STORE_PATH"`
	MongoURI        string        `env:"ECOSORT_MONGO_URI"`
	MongoDatabase   string        `env:"ECOSORT_MONGO_DATABASE"`
	MongoCollection string        `env:"ECOSORT_MONGO_COLLECTION"`
	StoreTimeout    time.Duration `env:"ECOSORT_STORE_TIMEOUT"`

	DefaultWindowDays int           `env:"ECOSORT_DEFAULT_WINDOW_DAYS"`
	MaxWindowDays     int           `env:"ECOSORT_MAX_WINDOW_DAYS"`
	CacheTTL          time.Duration `env:"ECOSORT_CACHE_TTL"`

	// KafkaBrokers enables the Kafka ingest and publisher when non-empty.
	KafkaBrokers     []string      `env:"ECOSORT_KAFKA_BROKERS" envSeparator:","`
	ScanTopic        string        `env:"ECOSORT_KAFKA_SCAN_TOPIC"`
	LoggedTopic      string        `env:"ECOSORT_KAFKA_LOGGED_TOPIC"`
	KafkaGroupID     string        `env:"ECOSORT_KAFKA_GROUP_ID"`
	KafkaPollTimeout time.Duration `env:"ECOSORT_KAFKA_POLL_TIMEOUT"`

	// MQTTBroker enables the smart-bin subscriber when non-empty.
	MQTTBroker   string `env:"ECOSORT_MQTT_BROKER"`
	MQTTTopic    string `env:"ECOSORT_MQTT_TOPIC"`
	MQTTClientID string `env:"ECOSORT_MQTT_CLIENT_ID"`

	JWTSecret   string `env:"ECOSORT_JWT_SECRET"`
	JWTRequired bool   `env:"ECOSORT_JWT_REQUIRED"`

	OTelEndpoint   string   `env:"ECOSORT_OTEL_ENDPOINT"`
	AllowedOrigins []string `env:"ECOSORT_CORS_ALLOWED_ORIGINS" envSeparator:","`

	BreakerMaxFailures  int           `env:"ECOSORT_CB_MAX_FAILURES"`
	BreakerResetTimeout time.Duration `env:"ECOSORT_CB_RESET_TIMEOUT"`
	BreakerSuccesses    int           `env:"ECOSORT_CB_SUCCESSES_TO_CLOSE"`

	// DemoSeedDays seeds fixture data for DemoUserID on startup when the
	// store is empty. Zero disables it.
	DemoUserID   string `env:"ECOSORT_DEMO_USER_ID"`
	DemoSeedDays int    `env:"ECOSORT_DEMO_SEED_DAYS"`
}

const (
	defaultListenAddress   = ":8080"
	defaultLogFile         = "logs/ecosort.log"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdown        = 10 * time.Second
	defaultPropsPath       = "ecosort.properties"
	defaultStoreEngine     = "sqlite"
	defaultStorePath       = "data/ecosort.db"
	defaultMongoDatabase   = "ecosort"
	defaultMongoCollection = "wastescans"
	defaultStoreTimeout    = 5 * time.Second
	defaultWindowDays      = 30
	defaultMaxWindowDays   = 90
	defaultCacheTTL        = time.Minute
	defaultScanTopic       = "ecosort.scans.raw"
	defaultLoggedTopic     = "ecosort.scans.logged"
	defaultGroupID         = "ecosort-ingest"
	defaultPollTimeout     = 5 * time.Second
	defaultMQTTTopic       = "ecosort/bins/+/scans"
	defaultMQTTClientID    = "ecosort-backend"
	defaultCBFailures      = 5
	defaultCBReset         = 30 * time.Second
	defaultCBSuccesses     = 1
	defaultDemoUser        = "demo@ecosort.local"
)

// Defaults returns the configuration used when nothing else is supplied.
func Defaults() Config {
	return Config{
		ListenAddress:       defaultListenAddress,
		LogFilePath:         filepath.Clean(defaultLogFile),
		HTTPReadTimeout:     defaultReadTimeout,
		HTTPWriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout:     defaultShutdown,
		PropertiesPath:      defaultPropsPath,
		StoreEngine:         defaultStoreEngine,
		StorePath:           filepath.Clean(defaultStorePath),
		MongoDatabase:       defaultMongoDatabase,
		MongoCollection:     defaultMongoCollection,
		StoreTimeout:        defaultStoreTimeout,
		DefaultWindowDays:   defaultWindowDays,
		MaxWindowDays:       defaultMaxWindowDays,
		CacheTTL:            defaultCacheTTL,
		ScanTopic:           defaultScanTopic,
		LoggedTopic:         defaultLoggedTopic,
		KafkaGroupID:        defaultGroupID,
		KafkaPollTimeout:    defaultPollTimeout,
		MQTTTopic:           defaultMQTTTopic,
		MQTTClientID:        defaultMQTTClientID,
		BreakerMaxFailures:  defaultCBFailures,
		BreakerResetTimeout: defaultCBReset,
		BreakerSuccesses:    defaultCBSuccesses,
		DemoUserID:          defaultDemoUser,
	}
}

// Load resolves configuration by layering defaults, an optional properties
// file and finally environment variables. The properties file location can
// be overridden with ECOSORT_PROPERTIES_PATH.
func Load() (Config, error) {
	propsPath := strings.TrimSpace(os.Getenv("ECOSORT_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	return LoadFile(propsPath)
}

// LoadFile is Load with an explicit properties path. A missing file is not an error.
func LoadFile(propsPath string) (Config, error) {
	cfg := Defaults()
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.AllowedOrigins = compact(cfg.AllowedOrigins)
	cfg.LogFilePath = filepath.Clean(cfg.LogFilePath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return errors.New("listen address cannot be empty")
	}
	switch c.StoreEngine {
	case "memory", "json", "sqlite":
		if c.StoreEngine != "memory" && strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("store engine %s requires a store path", c.StoreEngine)
		}
	case "mongo":
		if strings.TrimSpace(c.MongoURI) == "" {
			return errors.New("store engine mongo requires a mongo uri")
		}
	default:
		return fmt.Errorf("unknown store engine %q", c.StoreEngine)
	}
	if c.DefaultWindowDays < 1 {
		return errors.New("default window days must be positive")
	}
	if c.MaxWindowDays < c.DefaultWindowDays {
		return fmt.Errorf("max window days %d is below the default %d", c.MaxWindowDays, c.DefaultWindowDays)
	}
	if c.JWTRequired && c.JWTSecret == "" {
		return errors.New("jwt required but no secret configured")
	}
	if c.DemoSeedDays < 0 {
		return errors.New("demo seed days cannot be negative")
	}
	return nil
}

// KafkaEnabled reports whether brokers were configured.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// MQTTEnabled reports whether a broker was configured.
func (c Config) MQTTEnabled() bool { return strings.TrimSpace(c.MQTTBroker) != "" }

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "listen_address":
		err = nonEmpty(&cfg.ListenAddress, value)
	case "log_path":
		if err = nonEmpty(&cfg.LogFilePath, value); err == nil {
			cfg.LogFilePath = filepath.Clean(value)
		}
	case "http_read_timeout":
		cfg.HTTPReadTimeout, err = parseDuration(value)
	case "http_write_timeout":
		cfg.HTTPWriteTimeout, err = parseDuration(value)
	case "shutdown_timeout":
		cfg.ShutdownTimeout, err = parseDuration(value)
	case "store_engine":
		err = nonEmpty(&cfg.StoreEngine, strings.ToLower(value))
	case "store_path":
		cfg.StorePath = value
	case "mongo_uri":
		cfg.MongoURI = value
	case "mongo_database":
		err = nonEmpty(&cfg.MongoDatabase, value)
	case "mongo_collection":
		err = nonEmpty(&cfg.MongoCollection, value)
	case "store_timeout":
		cfg.StoreTimeout, err = parseDuration(value)
	case "default_window_days":
		cfg.DefaultWindowDays, err = parsePositiveInt(value)
	case "max_window_days":
		cfg.MaxWindowDays, err = parsePositiveInt(value)
	case "cache_ttl":
		// zero disables the report cache
		if value == "0" {
			cfg.CacheTTL = 0
			return nil
		}
		cfg.CacheTTL, err = parseDuration(value)
	case "kafka_brokers":
		cfg.KafkaBrokers = compact(strings.Split(value, ","))
	case "kafka_scan_topic":
		err = nonEmpty(&cfg.ScanTopic, value)
	case "kafka_logged_topic":
		cfg.LoggedTopic = value
	case "kafka_group_id":
		err = nonEmpty(&cfg.KafkaGroupID, value)
	case "kafka_poll_timeout":
		cfg.KafkaPollTimeout, err = parseDuration(value)
	case "mqtt_broker":
		cfg.MQTTBroker = value
	case "mqtt_topic":
		err = nonEmpty(&cfg.MQTTTopic, value)
	case "mqtt_client_id":
		err = nonEmpty(&cfg.MQTTClientID, value)
	case "jwt_secret":
		cfg.JWTSecret = value
	case "jwt_required":
		cfg.JWTRequired, err = strconv.ParseBool(value)
	case "otel_endpoint":
		cfg.OTelEndpoint = value
	case "cors_allowed_origins":
		cfg.AllowedOrigins = compact(strings.Split(value, ","))
	case "cb_max_failures":
		cfg.BreakerMaxFailures, err = parsePositiveInt(value)
	case "cb_reset_timeout":
		cfg.BreakerResetTimeout, err = parseDuration(value)
	case "cb_successes_to_close":
		cfg.BreakerSuccesses, err = parsePositiveInt(value)
	case "demo_user_id":
		err = nonEmpty(&cfg.DemoUserID, value)
	case "demo_seed_days":
		cfg.DemoSeedDays, err = strconv.Atoi(value)
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return err
}

func nonEmpty(dst *string, value string) error {
	if value == "" {
		return errors.New("value cannot be empty")
	}
	*dst = value
	return nil
}

// parseDuration accepts Go durations ("750ms", "5s") and bare integers as milliseconds.
func parseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		if ms <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", value, err)
	}
	if n <= 0 {
		return 0, errors.New("value must be positive")
	}
	return n, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
