// v0
// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeProps(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecosort.properties")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutPropertiesFile(t *testing.T) {
	t.Setenv("ECOSORT_PROPERTIES_PATH", filepath.Join(t.TempDir(), "missing.properties"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8080" || cfg.StoreEngine != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DefaultWindowDays != 30 || cfg.MaxWindowDays != 90 {
		t.Fatalf("unexpected window defaults: %d/%d", cfg.DefaultWindowDays, cfg.MaxWindowDays)
	}
	if cfg.KafkaEnabled() || cfg.MQTTEnabled() {
		t.Fatalf("ingest should be disabled by default")
	}
}

func TestLoadLayersPropertiesThenEnv(t *testing.T) {
	path := writeProps(t, strings.Join([]string{
		"# local overrides",
		"listen_address = :9000",
		"store_engine = json",
		"store_path = /tmp/scans.jsonl",
		"http_read_timeout = 1500",
		"cache_ttl = 2m",
		"kafka_brokers = k1:9092, k2:9092",
		"max_window_days = 60",
		"unknown_key = ignored",
	}, "\n"))
	t.Setenv("ECOSORT_PROPERTIES_PATH", path)
	t.Setenv("ECOSORT_LISTEN_ADDRESS", ":9100")
	t.Setenv("ECOSORT_CB_RESET_TIMEOUT", "45s")
	t.Setenv("ECOSORT_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":9100" {
		t.Fatalf("env should win over properties, got %s", cfg.ListenAddress)
	}
	if cfg.StoreEngine != "json" || cfg.StorePath != "/tmp/scans.jsonl" {
		t.Fatalf("store settings not applied: %+v", cfg)
	}
	if cfg.HTTPReadTimeout != 1500*time.Millisecond || cfg.CacheTTL != 2*time.Minute {
		t.Fatalf("durations not applied: %v %v", cfg.HTTPReadTimeout, cfg.CacheTTL)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.BreakerResetTimeout != 45*time.Second {
		t.Fatalf("breaker reset = %v", cfg.BreakerResetTimeout)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaxWindowDays != 60 || cfg.PropertiesPath != path {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		props string
		env   map[string]string
	}{
		{name: "malformed line", props: "listen_address"},
		{name: "bad duration", props: "shutdown_timeout = soon"},
		{name: "negative window", props: "default_window_days = -1"},
		{name: "max below default", props: "default_window_days = 30\nmax_window_days = 7"},
		{name: "unknown engine", props: "store_engine = redis"},
		{name: "mongo without uri", props: "store_engine = mongo"},
		{name: "jwt required without secret", env: map[string]string{"ECOSORT_JWT_REQUIRED": "true"}},
		{name: "bad env duration", env: map[string]string{"ECOSORT_CACHE_TTL": "forever"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ECOSORT_PROPERTIES_PATH", writeProps(t, tc.props))
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
