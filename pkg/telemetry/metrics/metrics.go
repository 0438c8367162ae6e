// Package metrics exposes the service's Prometheus instrumentation:
// admission decisions, cache effectiveness, deduplication, circuit breaker
// states, provider latency and errors, and HTTP server counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains configuration for metrics collection.
type Config struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name. Default: "careline".
	Namespace string `yaml:"namespace"`

	// Path is the scrape endpoint path. Default: "/metrics".
	Path string `yaml:"path"`

	// DurationBuckets are the histogram buckets for latency metrics.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// Metrics holds every collector the service registers.
type Metrics struct {
	registry *prometheus.Registry

	admissionDecisions *prometheus.CounterVec
	bansIssued         prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	dedupeAttaches     prometheus.Counter
	breakerState       *prometheus.GaugeVec
	providerRequests   *prometheus.CounterVec
	providerErrors     *prometheus.CounterVec
	providerLatency    *prometheus.HistogramVec
	degradedAnswers    prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates and registers every collector on a fresh registry.
func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "careline"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	}

	ns := cfg.Namespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		admissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "admission_decisions_total",
			Help:      "Admission decisions by tier and outcome",
		}, []string{"tier", "outcome"}),

		bansIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bans_issued_total",
			Help:      "Bans issued for repeat rate limit offenders",
		}),

		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Response cache hits",
		}),

		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_misses_total",
			Help:      "Response cache misses",
		}),

		dedupeAttaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "dedupe_attaches_total",
			Help:      "Requests that attached to an in-flight identical computation",
		}),

		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per provider (0=closed, 1=open, 2=half-open)",
		}, []string{"provider"}),

		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "provider_requests_total",
			Help:      "Requests answered by each provider",
		}, []string{"provider", "model"}),

		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "provider_errors_total",
			Help:      "Provider errors by type",
		}, []string{"provider", "error_type"}),

		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "provider_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   cfg.DurationBuckets,
		}, []string{"provider", "model"}),

		degradedAnswers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "degraded_answers_total",
			Help:      "Static fallback answers returned after provider exhaustion",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method, and status",
		}, []string{"path", "method", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   cfg.DurationBuckets,
		}, []string{"path", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.admissionDecisions,
		m.bansIssued,
		m.cacheHits,
		m.cacheMisses,
		m.dedupeAttaches,
		m.breakerState,
		m.providerRequests,
		m.providerErrors,
		m.providerLatency,
		m.degradedAnswers,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAdmission counts one admission decision.
func (m *Metrics) RecordAdmission(tier, outcome string) {
	if tier == "" {
		tier = "none"
	}
	m.admissionDecisions.WithLabelValues(tier, outcome).Inc()
}

// RecordBan counts an issued ban.
func (m *Metrics) RecordBan() {
	m.bansIssued.Inc()
}

// RecordCacheHit counts a response cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss counts a response cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Inc()
}

// RecordDedupeAttach counts a request that shared an in-flight computation.
func (m *Metrics) RecordDedupeAttach() {
	m.dedupeAttaches.Inc()
}

// SetBreakerState records the current breaker state for a provider.
func (m *Metrics) SetBreakerState(provider string, state int) {
	m.breakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordProviderRequest counts a provider call and its latency.
func (m *Metrics) RecordProviderRequest(provider, model string, duration time.Duration) {
	m.providerRequests.WithLabelValues(provider, model).Inc()
	m.providerLatency.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordProviderError counts a provider error by type.
func (m *Metrics) RecordProviderError(provider, errorType string) {
	m.providerErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordDegraded counts a static fallback answer.
func (m *Metrics) RecordDegraded() {
	m.degradedAnswers.Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func (m *Metrics) RecordHTTPRequest(path, method, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(path, method, status).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}
