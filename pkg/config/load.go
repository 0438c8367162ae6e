package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bloodplusfight/careline/pkg/providers"
)

// Load reads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the convention
// CARELINE_SECTION_FIELD (e.g. CARELINE_SERVER_PORT) and always take
// precedence over file values.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("CARELINE_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("CARELINE_SERVER_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = i
		}
	}
	if val := os.Getenv("CARELINE_SERVER_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}

	// LINE overrides; credentials normally arrive this way rather than
	// sitting in the file.
	if val := os.Getenv("CARELINE_LINE_CHANNEL_SECRET"); val != "" {
		cfg.Line.ChannelSecret = val
	}
	if val := os.Getenv("CARELINE_LINE_CHANNEL_ACCESS_TOKEN"); val != "" {
		cfg.Line.ChannelAccessToken = val
	}

	// Provider overrides, keyed by the provider's configured name.
	for i := range cfg.Providers {
		applyProviderEnvOverrides(&cfg.Providers[i])
	}

	// Admission overrides
	if val := os.Getenv("CARELINE_ADMISSION_STORE_BACKEND"); val != "" {
		cfg.Admission.Store.Backend = val
	}
	if val := os.Getenv("CARELINE_ADMISSION_STORE_PATH"); val != "" {
		cfg.Admission.Store.Path = val
	}
	if val := os.Getenv("CARELINE_ADMISSION_BAN_DURATION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Admission.Ban.Duration = d
		}
	}

	// Cache overrides
	if val := os.Getenv("CARELINE_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if val := os.Getenv("CARELINE_CACHE_MIN_CONFIDENCE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Cache.MinConfidence = f
		}
	}

	// Breaker overrides
	if val := os.Getenv("CARELINE_BREAKER_FAILURE_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Breaker.FailureThreshold = i
		}
	}
	if val := os.Getenv("CARELINE_BREAKER_RECOVERY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Breaker.RecoveryTimeout = d
		}
	}

	// Orchestrator overrides
	if val := os.Getenv("CARELINE_ORCHESTRATOR_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Orchestrator.MaxRetries = i
		}
	}
	if val := os.Getenv("CARELINE_ORCHESTRATOR_INITIAL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Orchestrator.InitialTimeout = d
		}
	}
	if val := os.Getenv("CARELINE_ORCHESTRATOR_MAX_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Orchestrator.MaxTimeout = d
		}
	}

	// History overrides
	if val := os.Getenv("CARELINE_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv("CARELINE_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("CARELINE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CARELINE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CARELINE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CARELINE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("CARELINE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("CARELINE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies CARELINE_PROVIDERS_<NAME>_<FIELD>
// overrides for one provider, where NAME is the uppercase provider name.
func applyProviderEnvOverrides(p *providers.ProviderConfig) {
	prefix := fmt.Sprintf("CARELINE_PROVIDERS_%s_",
		strings.ToUpper(strings.ReplaceAll(p.Name, "-", "_")))

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		p.BaseURL = val
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		p.APIKey = val
	}
	if val := os.Getenv(prefix + "ACCOUNT_ID"); val != "" {
		p.AccountID = val
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		p.Model = val
	}
}
