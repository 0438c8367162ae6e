package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
server:
  host: 127.0.0.1
  port: 9090
line:
  channel_secret: secret
  channel_access_token: token
providers:
  - name: primary
    type: cloudflare
    account_id: acc-1
    api_key: cf-key
    model: "@cf/meta/llama-3-8b-instruct"
    priority: 1
  - name: secondary
    type: openai
    api_key: sk-test
    model: gpt-4o-mini
    priority: 2
admission:
  burst: {window: 5s, limit: 4}
  endpoint_classes:
    webhook: {window: 30s, limit: 20}
  ban: {threshold: 3, lookback: 5m, duration: 15m}
  store: {backend: sqlite, path: data/admission.db}
cache:
  ttl: 5m
  min_confidence: 0.9
breaker:
  failure_threshold: 3
orchestrator:
  max_retries: 1
  initial_timeout: 5s
  max_timeout: 20s
history:
  enabled: true
  path: data/history.db
telemetry:
  logging: {level: debug, format: text}
  metrics: {enabled: true}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[0].Type != "cloudflare" || cfg.Providers[0].AccountID != "acc-1" {
		t.Errorf("first provider = %+v", cfg.Providers[0])
	}
	if cfg.Admission.Burst.Window != 5*time.Second || cfg.Admission.Burst.Limit != 4 {
		t.Errorf("burst = %+v", cfg.Admission.Burst)
	}
	if got := cfg.Admission.EndpointClasses["webhook"].Limit; got != 20 {
		t.Errorf("webhook class limit = %d, want 20", got)
	}
	if cfg.Admission.Ban.Duration != 15*time.Minute {
		t.Errorf("ban duration = %v", cfg.Admission.Ban.Duration)
	}
	if cfg.Admission.Store.Backend != "sqlite" {
		t.Errorf("store backend = %q", cfg.Admission.Store.Backend)
	}
	if cfg.Cache.TTL != 5*time.Minute || cfg.Cache.MinConfidence != 0.9 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "providers:\n  - {name: p, type: openai, api_key: k, model: m}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Admission.PerIdentifier.Limit != DefaultPerIdentifierLimit {
		t.Errorf("per-identifier limit = %d", cfg.Admission.PerIdentifier.Limit)
	}
	if cfg.Admission.Store.Backend != "memory" {
		t.Errorf("store backend = %q, want memory", cfg.Admission.Store.Backend)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Breaker.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("failure threshold = %d", cfg.Breaker.FailureThreshold)
	}
	if cfg.Orchestrator.BackoffFactor != DefaultBackoffFactor {
		t.Errorf("backoff factor = %v", cfg.Orchestrator.BackoffFactor)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("CARELINE_SERVER_PORT", "7070")
	t.Setenv("CARELINE_LINE_CHANNEL_SECRET", "env-secret")
	t.Setenv("CARELINE_PROVIDERS_PRIMARY_API_KEY", "env-key")
	t.Setenv("CARELINE_CACHE_TTL", "30m")
	t.Setenv("CARELINE_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Line.ChannelSecret != "env-secret" {
		t.Errorf("channel secret = %q", cfg.Line.ChannelSecret)
	}
	if cfg.Providers[0].APIKey != "env-key" {
		t.Errorf("provider api key = %q", cfg.Providers[0].APIKey)
	}
	if cfg.Providers[1].APIKey != "sk-test" {
		t.Errorf("second provider api key changed: %q", cfg.Providers[1].APIKey)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			field:  "server.port",
		},
		{
			name:   "unknown provider type",
			mutate: func(c *Config) { c.Providers[0].Type = "mystery" },
			field:  "providers[0].type",
		},
		{
			name: "duplicate provider name",
			mutate: func(c *Config) {
				c.Providers[1].Name = c.Providers[0].Name
			},
			field: "providers[1].name",
		},
		{
			name:   "missing model",
			mutate: func(c *Config) { c.Providers[0].Model = "" },
			field:  "providers[0].model",
		},
		{
			name:   "sqlite store without path",
			mutate: func(c *Config) { c.Admission.Store.Path = "" },
			field:  "admission.store.path",
		},
		{
			name:   "unknown store backend",
			mutate: func(c *Config) { c.Admission.Store.Backend = "redis" },
			field:  "admission.store.backend",
		},
		{
			name:   "confidence out of range",
			mutate: func(c *Config) { c.Cache.MinConfidence = 1.5 },
			field:  "cache.min_confidence",
		},
		{
			name:   "max timeout below initial",
			mutate: func(c *Config) { c.Orchestrator.MaxTimeout = time.Second },
			field:  "orchestrator.max_timeout",
		},
		{
			name:   "bad history schedule",
			mutate: func(c *Config) { c.History.PurgeSchedule = "whenever" },
			field:  "history.purge_schedule",
		},
		{
			name:   "bad logging level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "tracing without endpoint",
			mutate: func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			field:  "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleYAML))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)

			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.field)
			}
		})
	}
}

func TestValidationErrorFormatsMultipleErrors(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}}
	msg := err.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "a: first") {
		t.Errorf("unexpected message: %q", msg)
	}
}
