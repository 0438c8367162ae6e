package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "admission.store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError if
// any rule fails. It returns nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(cfg)...)
	errs = append(errs, validateProviders(cfg)...)
	errs = append(errs, validateAdmission(cfg)...)
	errs = append(errs, validateCache(cfg)...)
	errs = append(errs, validateBreaker(cfg)...)
	errs = append(errs, validateOrchestrator(cfg)...)
	errs = append(errs, validateHistory(cfg)...)
	errs = append(errs, validateTelemetry(cfg)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *Config) []FieldError {
	var errs []FieldError
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}
	return errs
}

func validateProviders(cfg *Config) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(cfg.Providers))
	for i, p := range cfg.Providers {
		field := fmt.Sprintf("providers[%d]", i)

		if p.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "is required"})
		} else if seen[p.Name] {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate provider name %q", p.Name),
			})
		}
		seen[p.Name] = true

		switch p.Type {
		case "cloudflare", "openai":
		case "":
			errs = append(errs, FieldError{Field: field + ".type", Message: "is required"})
		default:
			errs = append(errs, FieldError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown provider type %q (want cloudflare or openai)", p.Type),
			})
		}

		if p.Model == "" {
			errs = append(errs, FieldError{Field: field + ".model", Message: "is required"})
		}
		if p.BaseURL != "" {
			if _, err := url.Parse(p.BaseURL); err != nil {
				errs = append(errs, FieldError{
					Field:   field + ".base_url",
					Message: fmt.Sprintf("invalid URL: %v", err),
				})
			}
		}
	}

	return errs
}

func validateAdmission(cfg *Config) []FieldError {
	var errs []FieldError
	a := cfg.Admission

	check := func(field string, window, limit bool) {
		if window != limit {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "window and limit must be set together",
			})
		}
	}
	check("admission.burst", a.Burst.Window > 0, a.Burst.Limit > 0)
	check("admission.per_identifier", a.PerIdentifier.Window > 0, a.PerIdentifier.Limit > 0)
	check("admission.global", a.Global.Window > 0, a.Global.Limit > 0)
	for name, w := range a.EndpointClasses {
		check("admission.endpoint_classes."+name, w.Window > 0, w.Limit > 0)
	}

	if a.Ban.Threshold > 0 && (a.Ban.Lookback <= 0 || a.Ban.Duration <= 0) {
		errs = append(errs, FieldError{
			Field:   "admission.ban",
			Message: "lookback and duration are required when threshold is set",
		})
	}

	switch a.Store.Backend {
	case "memory":
	case "sqlite":
		if a.Store.Path == "" {
			errs = append(errs, FieldError{
				Field:   "admission.store.path",
				Message: "is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "admission.store.backend",
			Message: fmt.Sprintf("unknown backend %q (want memory or sqlite)", a.Store.Backend),
		})
	}

	return errs
}

func validateCache(cfg *Config) []FieldError {
	var errs []FieldError
	if cfg.Cache.MinConfidence < 0 || cfg.Cache.MinConfidence > 1 {
		errs = append(errs, FieldError{
			Field:   "cache.min_confidence",
			Message: fmt.Sprintf("must be in [0,1], got %v", cfg.Cache.MinConfidence),
		})
	}
	return errs
}

func validateBreaker(cfg *Config) []FieldError {
	var errs []FieldError
	if cfg.Breaker.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "breaker.failure_threshold",
			Message: "must be at least 1",
		})
	}
	return errs
}

func validateOrchestrator(cfg *Config) []FieldError {
	var errs []FieldError
	o := cfg.Orchestrator
	if o.MaxTimeout < o.InitialTimeout {
		errs = append(errs, FieldError{
			Field:   "orchestrator.max_timeout",
			Message: "must be at least initial_timeout",
		})
	}
	if o.BackoffFactor < 1 {
		errs = append(errs, FieldError{
			Field:   "orchestrator.backoff_factor",
			Message: "must be at least 1",
		})
	}
	return errs
}

func validateHistory(cfg *Config) []FieldError {
	var errs []FieldError
	h := cfg.History
	if !h.Enabled {
		return nil
	}
	if h.Path == "" {
		errs = append(errs, FieldError{Field: "history.path", Message: "is required"})
	}
	if _, err := cron.ParseStandard(h.PurgeSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "history.purge_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	return errs
}

func validateTelemetry(cfg *Config) []FieldError {
	var errs []FieldError
	t := cfg.Telemetry

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error, got %q", t.Logging.Level),
		})
	}
	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", t.Logging.Format),
		})
	}

	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "is required when tracing is enabled",
		})
	}
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("must be in [0,1], got %v", t.Tracing.SampleRatio),
		})
	}

	return errs
}
