// Package orchestrator drives the provider fallback chain: adaptive
// per-attempt timeouts, retries with backoff, circuit-breaker consultation,
// and a terminal static fallback when every backend is exhausted.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bloodplusfight/careline/pkg/breaker"
	"github.com/bloodplusfight/careline/pkg/providers"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
)

// ErrAllProvidersExhausted is recorded when every candidate in the chain
// failed. Callers never see it directly; the orchestrator maps it to the
// static fallback answer.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// Config tunes the fallback chain.
type Config struct {
	// MaxRetries is the number of attempts against each candidate.
	// Default: 2.
	MaxRetries int

	// InitialTimeout is the deadline for the first attempt against a
	// candidate. Default: 10s.
	InitialTimeout time.Duration

	// BackoffFactor multiplies both the attempt timeout and the wait
	// between attempts after each failure. Default: 2.0.
	BackoffFactor float64

	// MaxTimeout caps the grown per-attempt deadline. Default: 30s.
	MaxTimeout time.Duration

	// InitialBackoff is the wait before the second attempt against a
	// candidate. Default: 500ms.
	InitialBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = 10 * time.Second
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 2.0
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = 30 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	return c
}

// Orchestrator selects a healthy backend, calls it under an adaptive
// timeout, and falls back across the chain. Safe for concurrent use; backoff
// waits block only the requesting goroutine.
type Orchestrator struct {
	cfg      Config
	chain    []providers.Provider
	breakers *breaker.Set
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an orchestrator over a priority-ordered provider chain.
// A nil logger discards log output.
func New(cfg Config, chain []providers.Provider, breakers *breaker.Set, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		chain:    chain,
		breakers: breakers,
		logger:   logger,
	}
}

// SetMetrics attaches a metrics collector. May be left unset.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) {
	o.metrics = m
}

// Respond asks the chain for an answer to the conversation.
//
// Candidates are tried in priority order; a candidate whose circuit is Open
// is skipped without an attempt. Each candidate gets up to MaxRetries
// attempts under a timeout that starts at InitialTimeout and grows by
// BackoffFactor per retry, capped at MaxTimeout. Every attempt outcome is
// reported to the candidate's breaker.
//
// When every candidate is exhausted Respond returns the deterministic static
// fallback for the language with a nil error; the only returned error is the
// caller's own context ending.
func (o *Orchestrator) Respond(ctx context.Context, messages []providers.Message, language string) (*Answer, error) {
	for _, p := range o.chain {
		answer, err := o.tryProvider(ctx, p, messages, language)
		if err == nil {
			return answer, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	o.logger.Warn("returning degraded static answer",
		"language", language, "providers", len(o.chain), "error", ErrAllProvidersExhausted)
	return Fallback(language), nil
}

// tryProvider runs the retry loop for one candidate.
func (o *Orchestrator) tryProvider(ctx context.Context, p providers.Provider, messages []providers.Message, language string) (*Answer, error) {
	br := o.breakers.Get(p.Name())

	timeout := o.cfg.InitialTimeout
	backoff := o.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// Non-blocking with respect to other requests: only this
			// goroutine waits.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * o.cfg.BackoffFactor)
			timeout = time.Duration(float64(timeout) * o.cfg.BackoffFactor)
			if timeout > o.cfg.MaxTimeout {
				timeout = o.cfg.MaxTimeout
			}
		}

		if !br.Allow() {
			o.logger.Debug("provider circuit open, skipping",
				"provider", p.Name(), "state", br.State())
			if lastErr == nil {
				lastErr = ErrAllProvidersExhausted
			}
			return nil, lastErr
		}

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := p.Complete(attemptCtx, &providers.CompletionRequest{Messages: messages})
		cancel()

		if err == nil {
			br.RecordSuccess()
			o.observe(p, time.Since(start), nil, br)
			return &Answer{
				Text:         resp.Content,
				Provider:     p.Name(),
				Model:        p.Model(),
				Confidence:   confidenceFor(resp.FinishReason),
				TokensUsed:   resp.Usage.TotalTokens,
				FinishReason: resp.FinishReason,
				Language:     language,
			}, nil
		}

		br.RecordFailure()
		o.observe(p, time.Since(start), err, br)
		lastErr = err
		o.logger.Warn("provider attempt failed",
			"provider", p.Name(), "attempt", attempt+1,
			"timeout", timeout, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !providers.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// observe records the attempt's counters and the breaker state gauge.
func (o *Orchestrator) observe(p providers.Provider, latency time.Duration, err error, br *breaker.Breaker) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordProviderRequest(p.Name(), p.Model(), latency)
	if err != nil {
		o.metrics.RecordProviderError(p.Name(), providers.ErrorType(err))
	}
	o.metrics.SetBreakerState(p.Name(), int(br.State()))
}
