// Package admission gates every inbound request before any expensive work
// happens: multi-tier sliding-window rate limiting with ban escalation for
// repeat offenders.
//
// Checks run in a fixed order and the first failure short-circuits:
// active ban, burst window, endpoint-class window, per-identifier window,
// global window. A banned or rate-limited caller never reaches the cache or
// a provider.
package admission

import (
	"time"
)

// Reason classifies why a request was rejected.
type Reason string

const (
	// ReasonBanned means the identifier has an active ban.
	ReasonBanned Reason = "banned"

	// ReasonRateLimited means a sliding-window limit was exceeded.
	ReasonRateLimited Reason = "rate_limited"
)

// Tier names the check that produced a decision.
type Tier string

const (
	TierBan           Tier = "ban"
	TierBurst         Tier = "burst"
	TierEndpointClass Tier = "endpoint_class"
	TierPerIdentifier Tier = "per_identifier"
	TierGlobal        Tier = "global"
)

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// RetryAfter hints when the caller may try again. Zero when allowed.
	RetryAfter time.Duration

	// Tier names the check that rejected the request. Empty when allowed.
	Tier Tier

	// Reason classifies the rejection. Empty when allowed.
	Reason Reason
}

// WindowConfig describes one sliding-window tier.
// A Limit of zero disables the tier.
type WindowConfig struct {
	// Window is the trailing interval events are counted over.
	Window time.Duration

	// Limit is the maximum number of events within Window.
	Limit int
}

// Enabled reports whether the tier participates in admission checks.
func (w WindowConfig) Enabled() bool {
	return w.Limit > 0 && w.Window > 0
}

// BanConfig controls escalation for repeat offenders.
type BanConfig struct {
	// Threshold is the violation count within Lookback that triggers a ban.
	// Zero disables escalation.
	Threshold int

	// Lookback is the trailing interval violations are counted over.
	Lookback time.Duration

	// Duration is how long a triggered ban lasts.
	Duration time.Duration
}

// Config configures the admission controller.
type Config struct {
	// Burst guards against short request storms. Default: 8 per 10s.
	Burst WindowConfig

	// EndpointClasses holds quotas specific to sensitive route classes,
	// keyed by class name. Requests with an unknown or empty class skip
	// this tier.
	EndpointClasses map[string]WindowConfig

	// PerIdentifier is the steady-state quota per caller.
	// Default: 30 per 60s.
	PerIdentifier WindowConfig

	// Global is the shared quota across all callers. Default: 600 per 60s.
	Global WindowConfig

	// Ban controls escalation. Default: 5 violations in 10m ban for 30m.
	Ban BanConfig

	// Now overrides the clock for tests.
	Now func() time.Time
}

// withDefaults fills zero-valued fields with production defaults.
func (c Config) withDefaults() Config {
	if c.Burst == (WindowConfig{}) {
		c.Burst = WindowConfig{Window: 10 * time.Second, Limit: 8}
	}
	if c.PerIdentifier == (WindowConfig{}) {
		c.PerIdentifier = WindowConfig{Window: time.Minute, Limit: 30}
	}
	if c.Global == (WindowConfig{}) {
		c.Global = WindowConfig{Window: time.Minute, Limit: 600}
	}
	if c.Ban == (BanConfig{}) {
		c.Ban = BanConfig{Threshold: 5, Lookback: 10 * time.Minute, Duration: 30 * time.Minute}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
