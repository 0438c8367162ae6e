// Package breaker implements a per-provider circuit breaker.
//
// Each language-model backend gets its own breaker. The orchestrator reports
// every attempt outcome here and consults Allow before dialing a provider, so
// a persistently failing backend is skipped instead of dragging every request
// through its timeout.
package breaker

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed allows all traffic; failures are counted.
	StateClosed State = iota

	// StateOpen rejects all traffic until the recovery timeout elapses.
	StateOpen

	// StateHalfOpen allows exactly one trial request.
	StateHalfOpen
)

// String returns the lowercase state name for logs and metrics labels.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config contains circuit breaker tuning parameters.
type Config struct {
	// FailureThreshold is the number of failures within MonitoringPeriod
	// that trips the breaker from Closed to Open.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays Open before a single
	// trial request is permitted.
	// Default: 60s
	RecoveryTimeout time.Duration

	// MonitoringPeriod bounds the failure counting window in the Closed
	// state. Failures older than this period do not count toward the
	// threshold. Zero means failures accumulate until a success.
	// Default: 2m
	MonitoringPeriod time.Duration

	// Now overrides the clock. Tests inject a deterministic clock here;
	// production code leaves it nil and gets time.Now.
	Now func() time.Time
}

// Breaker is a three-state circuit breaker for a single provider.
//
// State transitions:
//
//	Closed   --failures >= threshold-->  Open
//	Open     --recovery timeout-->       HalfOpen (one trial admitted)
//	HalfOpen --trial success-->          Closed
//	HalfOpen --trial failure-->          Open (fresh openedAt)
//
// All methods are safe for concurrent use. The HalfOpen state admits exactly
// one trial: concurrent callers are rejected until the trial settles.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	windowStart  time.Time
	openedAt     time.Time
	trialPending bool
}

// New creates a circuit breaker, applying defaults for zero-valued fields.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.MonitoringPeriod < 0 {
		cfg.MonitoringPeriod = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Breaker{
		cfg:   cfg,
		now:   now,
		state: StateClosed,
	}
}

// Allow reports whether a request may be sent to the provider right now.
//
// In the Open state the first call after the recovery timeout transitions the
// breaker to HalfOpen and is admitted as the trial; everyone else is rejected
// until the trial outcome is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
			b.state = StateHalfOpen
			b.trialPending = true
			return true
		}
		return false

	case StateHalfOpen:
		if b.trialPending {
			return false
		}
		b.trialPending = true
		return true

	default:
		return false
	}
}

// RecordSuccess reports a successful provider call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.state = StateClosed
		b.failures = 0
		b.trialPending = false
	}
}

// RecordFailure reports a failed provider call (timeout, upstream error, or
// structurally invalid response).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	switch b.state {
	case StateClosed:
		// Roll the counting window when the monitoring period lapses.
		if b.cfg.MonitoringPeriod > 0 && now.Sub(b.windowStart) > b.cfg.MonitoringPeriod {
			b.failures = 0
			b.windowStart = now
		}
		if b.failures == 0 {
			b.windowStart = now
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = now
		}

	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = now
		b.failures = 0
		b.trialPending = false
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current failure count. Primarily for metrics and tests.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
