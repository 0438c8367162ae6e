package admission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bloodplusfight/careline/pkg/admission/store"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
)

// Controller performs multi-tier admission checks against a shared store.
//
// Counter updates are read-then-write; concurrent bursts can transiently
// exceed a limit by a small margin, which is an accepted approximation.
// Store errors fail open: the request is allowed and the event logged,
// because chat availability takes priority over perfect quota enforcement.
type Controller struct {
	cfg     Config
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// consultedTier is a window tier that passed its check and must receive the
// current timestamp once every tier has passed.
type consultedTier struct {
	key    string
	window time.Duration
	stamps []time.Time
}

// New creates an admission controller. A nil logger discards log output.
func New(cfg Config, st store.Store, logger *slog.Logger) *Controller {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		cfg:    cfg,
		store:  st,
		logger: logger,
		now:    cfg.Now,
	}
}

// SetMetrics attaches a metrics collector. May be left unset.
func (c *Controller) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Admit decides whether a request from identifier may proceed.
//
// endpointClass selects an optional endpoint-class quota; an empty or
// unconfigured class skips that tier. Checks run in fixed order and the
// first failure short-circuits: ban, burst, endpoint class, per-identifier,
// global. A passing request appends its timestamp to every consulted tier.
func (c *Controller) Admit(ctx context.Context, identifier, endpointClass string) Decision {
	now := c.now()

	if d, banned := c.checkBan(ctx, identifier, now); banned {
		return d
	}

	tiers := []struct {
		tier Tier
		key  string
		cfg  WindowConfig
	}{
		{TierBurst, "burst:" + identifier, c.cfg.Burst},
		{TierEndpointClass, "class:" + endpointClass + ":" + identifier, c.cfg.EndpointClasses[endpointClass]},
		{TierPerIdentifier, "ident:" + identifier, c.cfg.PerIdentifier},
		{TierGlobal, "global", c.cfg.Global},
	}

	consulted := make([]consultedTier, 0, len(tiers))
	for _, t := range tiers {
		if !t.cfg.Enabled() {
			continue
		}

		stamps, err := c.store.LoadWindow(ctx, t.key)
		if err != nil {
			c.logger.Warn("admission store unavailable, failing open",
				"tier", t.tier, "identifier", identifier, "error", err)
			continue
		}

		retained := pruneOlderThan(stamps, now.Add(-t.cfg.Window))
		if len(retained) >= t.cfg.Limit {
			retryAfter := retained[0].Add(t.cfg.Window).Sub(now)
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			c.recordViolation(ctx, identifier, now)
			c.logger.Info("request rejected",
				"tier", t.tier, "identifier", identifier,
				"count", len(retained), "limit", t.cfg.Limit,
				"retry_after", retryAfter)
			return Decision{
				Allowed:    false,
				RetryAfter: retryAfter,
				Tier:       t.tier,
				Reason:     ReasonRateLimited,
			}
		}

		consulted = append(consulted, consultedTier{
			key:    t.key,
			window: t.cfg.Window,
			stamps: retained,
		})
	}

	// All tiers passed. Append now to each consulted window.
	for _, t := range consulted {
		stamps := append(t.stamps, now)
		if err := c.store.SaveWindow(ctx, t.key, stamps, t.window); err != nil {
			c.logger.Warn("failed to persist admission window",
				"key", t.key, "error", err)
		}
	}

	return Decision{Allowed: true}
}

// checkBan rejects identifiers with an active ban.
func (c *Controller) checkBan(ctx context.Context, identifier string, now time.Time) (Decision, bool) {
	ban, err := c.store.LoadBan(ctx, identifier)
	if err != nil {
		c.logger.Warn("admission store unavailable, failing open",
			"tier", TierBan, "identifier", identifier, "error", err)
		return Decision{}, false
	}
	if !ban.Active(now) {
		return Decision{}, false
	}

	retryAfter := ban.Expiry.Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	c.logger.Info("request rejected, identifier banned",
		"identifier", identifier, "reason", ban.Reason, "retry_after", retryAfter)
	return Decision{
		Allowed:    false,
		RetryAfter: retryAfter,
		Tier:       TierBan,
		Reason:     ReasonBanned,
	}, true
}

// recordViolation notes a non-ban rejection for identifier and escalates to
// a ban once the threshold is reached within the lookback period.
func (c *Controller) recordViolation(ctx context.Context, identifier string, now time.Time) {
	if c.cfg.Ban.Threshold <= 0 {
		return
	}

	stamps, err := c.store.LoadViolations(ctx, identifier)
	if err != nil {
		c.logger.Warn("failed to load violations", "identifier", identifier, "error", err)
		return
	}

	retained := append(pruneOlderThan(stamps, now.Add(-c.cfg.Ban.Lookback)), now)
	if len(retained) < c.cfg.Ban.Threshold {
		if err := c.store.SaveViolations(ctx, identifier, retained, c.cfg.Ban.Lookback); err != nil {
			c.logger.Warn("failed to persist violations", "identifier", identifier, "error", err)
		}
		return
	}

	ban := &store.Ban{
		Reason: fmt.Sprintf("%d rate limit violations within %s",
			len(retained), c.cfg.Ban.Lookback),
		StartTime: now,
		Expiry:    now.Add(c.cfg.Ban.Duration),
	}
	if err := c.store.SaveBan(ctx, identifier, ban); err != nil {
		c.logger.Warn("failed to persist ban", "identifier", identifier, "error", err)
		return
	}
	if err := c.store.ClearViolations(ctx, identifier); err != nil {
		c.logger.Warn("failed to clear violations", "identifier", identifier, "error", err)
	}
	if c.metrics != nil {
		c.metrics.RecordBan()
	}
	c.logger.Warn("identifier banned",
		"identifier", identifier, "until", ban.Expiry, "reason", ban.Reason)
}

// ResolveIdentifier picks the admission identifier for a request: the known
// user id when present, otherwise the caller's host, otherwise "unknown".
func ResolveIdentifier(userID, remoteAddr string) string {
	if userID != "" {
		return userID
	}
	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			return host
		}
		return remoteAddr
	}
	return "unknown"
}

// pruneOlderThan returns the suffix of stamps strictly newer than cutoff.
// Stamps are stored in append order, so the retained suffix stays ordered
// with the oldest first.
func pruneOlderThan(stamps []time.Time, cutoff time.Time) []time.Time {
	out := stamps[:0:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	return out
}
