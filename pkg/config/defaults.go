package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 55 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Admission defaults
	DefaultBurstWindow         = 10 * time.Second
	DefaultBurstLimit          = 8
	DefaultPerIdentifierWindow = time.Minute
	DefaultPerIdentifierLimit  = 30
	DefaultGlobalWindow        = time.Minute
	DefaultGlobalLimit         = 600
	DefaultBanThreshold        = 5
	DefaultBanLookback         = 10 * time.Minute
	DefaultBanDuration         = 30 * time.Minute
	DefaultAdmissionBackend    = "memory"

	// Cache defaults
	DefaultCacheTTL           = 10 * time.Minute
	DefaultCacheMinConfidence = 0.8
	DefaultCacheMaxEntries    = 10000
	DefaultCacheSweepInterval = time.Minute

	// Breaker defaults
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
	DefaultMonitoringPeriod = 2 * time.Minute

	// Orchestrator defaults
	DefaultMaxRetries     = 2
	DefaultInitialTimeout = 10 * time.Second
	DefaultMaxTimeout     = 30 * time.Second
	DefaultBackoffFactor  = 2.0
	DefaultInitialBackoff = 500 * time.Millisecond

	// History defaults
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetentionDays = 90
	DefaultHistorySchedule      = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "careline"
	DefaultTracingEnabled   = false
	DefaultSampleRatio      = 1.0
	DefaultServiceName      = "careline"
)

// ApplyDefaults fills zero-valued fields with production defaults. Explicit
// values from the file or environment are never overwritten.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyAdmissionDefaults(cfg)
	applyCacheDefaults(cfg)
	applyBreakerDefaults(cfg)
	applyOrchestratorDefaults(cfg)
	applyHistoryDefaults(cfg)
	applyTelemetryDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyAdmissionDefaults(cfg *Config) {
	a := &cfg.Admission
	if a.Burst.Window <= 0 && a.Burst.Limit == 0 {
		a.Burst.Window = DefaultBurstWindow
		a.Burst.Limit = DefaultBurstLimit
	}
	if a.PerIdentifier.Window <= 0 && a.PerIdentifier.Limit == 0 {
		a.PerIdentifier.Window = DefaultPerIdentifierWindow
		a.PerIdentifier.Limit = DefaultPerIdentifierLimit
	}
	if a.Global.Window <= 0 && a.Global.Limit == 0 {
		a.Global.Window = DefaultGlobalWindow
		a.Global.Limit = DefaultGlobalLimit
	}
	if a.Ban.Threshold == 0 && a.Ban.Lookback <= 0 && a.Ban.Duration <= 0 {
		a.Ban.Threshold = DefaultBanThreshold
		a.Ban.Lookback = DefaultBanLookback
		a.Ban.Duration = DefaultBanDuration
	}
	if a.Store.Backend == "" {
		a.Store.Backend = DefaultAdmissionBackend
	}
}

func applyCacheDefaults(cfg *Config) {
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MinConfidence <= 0 {
		cfg.Cache.MinConfidence = DefaultCacheMinConfidence
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.SweepInterval <= 0 {
		cfg.Cache.SweepInterval = DefaultCacheSweepInterval
	}
}

func applyBreakerDefaults(cfg *Config) {
	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Breaker.RecoveryTimeout <= 0 {
		cfg.Breaker.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.Breaker.MonitoringPeriod <= 0 {
		cfg.Breaker.MonitoringPeriod = DefaultMonitoringPeriod
	}
}

func applyOrchestratorDefaults(cfg *Config) {
	if cfg.Orchestrator.MaxRetries < 0 {
		cfg.Orchestrator.MaxRetries = 0
	}
	if cfg.Orchestrator.MaxRetries == 0 {
		cfg.Orchestrator.MaxRetries = DefaultMaxRetries
	}
	if cfg.Orchestrator.InitialTimeout <= 0 {
		cfg.Orchestrator.InitialTimeout = DefaultInitialTimeout
	}
	if cfg.Orchestrator.MaxTimeout <= 0 {
		cfg.Orchestrator.MaxTimeout = DefaultMaxTimeout
	}
	if cfg.Orchestrator.BackoffFactor <= 0 {
		cfg.Orchestrator.BackoffFactor = DefaultBackoffFactor
	}
	if cfg.Orchestrator.InitialBackoff <= 0 {
		cfg.Orchestrator.InitialBackoff = DefaultInitialBackoff
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.RetentionDays <= 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.History.PurgeSchedule == "" {
		cfg.History.PurgeSchedule = DefaultHistorySchedule
	}
}

func applyTelemetryDefaults(cfg *Config) {
	t := &cfg.Telemetry
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Tracing.SampleRatio <= 0 {
		t.Tracing.SampleRatio = DefaultSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}
}
