// Package config defines the service configuration, loads it from YAML with
// environment overrides, fills defaults, and validates the result.
package config

import (
	"time"

	"github.com/bloodplusfight/careline/pkg/admission"
	"github.com/bloodplusfight/careline/pkg/providers"
	"github.com/bloodplusfight/careline/pkg/server"
	"github.com/bloodplusfight/careline/pkg/telemetry/logging"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
	"github.com/bloodplusfight/careline/pkg/telemetry/tracing"
)

// Config is the root configuration for the service.
type Config struct {
	// Server configures the HTTP listener and middleware.
	Server server.Config `yaml:"server"`

	// Line configures the LINE Messaging API integration.
	Line LineConfig `yaml:"line"`

	// Providers lists the LLM backends in priority order.
	Providers []providers.ProviderConfig `yaml:"providers"`

	// Admission configures rate limiting and ban escalation.
	Admission AdmissionConfig `yaml:"admission"`

	// Cache configures the response cache.
	Cache CacheConfig `yaml:"cache"`

	// Breaker configures the per-provider circuit breakers.
	Breaker BreakerConfig `yaml:"breaker"`

	// Orchestrator configures retries, timeouts, and fallback.
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// Knowledge configures the curated knowledge base.
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// History configures conversation transcript persistence.
	History HistoryConfig `yaml:"history"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LineConfig holds LINE Messaging API credentials and endpoints.
type LineConfig struct {
	// ChannelSecret verifies webhook signatures. Empty disables
	// verification.
	ChannelSecret string `yaml:"channel_secret"`

	// ChannelAccessToken authorizes reply delivery. Empty disables replies.
	ChannelAccessToken string `yaml:"channel_access_token"`

	// ReplyEndpoint overrides the reply API URL. Empty uses the production
	// endpoint.
	ReplyEndpoint string `yaml:"reply_endpoint"`
}

// AdmissionConfig holds the sliding-window tiers and the ban policy.
type AdmissionConfig struct {
	// Burst guards against short request storms.
	Burst admission.WindowConfig `yaml:"burst"`

	// EndpointClasses holds per-route-class quotas keyed by class name.
	EndpointClasses map[string]admission.WindowConfig `yaml:"endpoint_classes"`

	// PerIdentifier is the steady-state quota per caller.
	PerIdentifier admission.WindowConfig `yaml:"per_identifier"`

	// Global is the shared quota across all callers.
	Global admission.WindowConfig `yaml:"global"`

	// Ban controls escalation for repeat offenders.
	Ban admission.BanConfig `yaml:"ban"`

	// Store selects where admission state lives.
	Store AdmissionStoreConfig `yaml:"store"`
}

// AdmissionStoreConfig selects the admission state backend.
type AdmissionStoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Required for the sqlite backend.
	Path string `yaml:"path"`
}

// CacheConfig holds the response cache settings.
type CacheConfig struct {
	// TTL is how long generated answers stay cached.
	TTL time.Duration `yaml:"ttl"`

	// MinConfidence is the lowest answer confidence worth caching.
	MinConfidence float64 `yaml:"min_confidence"`

	// MaxEntries bounds the cache size. Zero means unbounded.
	MaxEntries int `yaml:"max_entries"`

	// SweepInterval is how often expired entries are evicted.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// BreakerConfig holds the circuit breaker thresholds.
type BreakerConfig struct {
	// FailureThreshold is consecutive failures before the circuit opens.
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeout is how long an open circuit waits before a trial.
	RecoveryTimeout time.Duration `yaml:"recovery_timeout"`

	// MonitoringPeriod is the window over which failures are counted.
	MonitoringPeriod time.Duration `yaml:"monitoring_period"`
}

// OrchestratorConfig holds retry, timeout, and backoff settings.
type OrchestratorConfig struct {
	// MaxRetries is the number of attempts against each provider.
	MaxRetries int `yaml:"max_retries"`

	// InitialTimeout is the first attempt's deadline.
	InitialTimeout time.Duration `yaml:"initial_timeout"`

	// MaxTimeout caps the adaptive deadline.
	MaxTimeout time.Duration `yaml:"max_timeout"`

	// BackoffFactor multiplies the deadline and backoff per retry.
	BackoffFactor float64 `yaml:"backoff_factor"`

	// InitialBackoff is the pause before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// KnowledgeConfig holds curated-content settings.
type KnowledgeConfig struct {
	// Path is an optional YAML file of topic overrides.
	Path string `yaml:"path"`

	// Watch reloads the file on change.
	Watch bool `yaml:"watch"`
}

// HistoryConfig holds transcript persistence settings.
type HistoryConfig struct {
	// Enabled turns transcript persistence on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// RetentionDays is how long turns are kept.
	RetentionDays int `yaml:"retention_days"`

	// PurgeSchedule is a cron expression for the retention job.
	PurgeSchedule string `yaml:"purge_schedule"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging logging.Config `yaml:"logging"`

	// Metrics configures the Prometheus registry and endpoint.
	Metrics metrics.Config `yaml:"metrics"`

	// Tracing configures OpenTelemetry export.
	Tracing tracing.Config `yaml:"tracing"`
}
