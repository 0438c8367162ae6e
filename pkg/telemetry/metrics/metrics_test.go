package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAdmission(t *testing.T) {
	m := New(Config{})

	m.RecordAdmission("burst", "rejected")
	m.RecordAdmission("burst", "rejected")
	m.RecordAdmission("", "allowed")

	if got := testutil.ToFloat64(m.admissionDecisions.WithLabelValues("burst", "rejected")); got != 2 {
		t.Errorf("burst rejections: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.admissionDecisions.WithLabelValues("none", "allowed")); got != 1 {
		t.Errorf("allowed with empty tier must map to none, got %v", got)
	}
}

func TestCacheAndDedupeCounters(t *testing.T) {
	m := New(Config{})

	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()
	m.RecordDedupeAttach()

	if got := testutil.ToFloat64(m.cacheHits); got != 1 {
		t.Errorf("cache hits: got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheMisses); got != 2 {
		t.Errorf("cache misses: got %v", got)
	}
	if got := testutil.ToFloat64(m.dedupeAttaches); got != 1 {
		t.Errorf("dedupe attaches: got %v", got)
	}
}

func TestProviderMetrics(t *testing.T) {
	m := New(Config{})

	m.RecordProviderRequest("cf", "llama", 120*time.Millisecond)
	m.RecordProviderError("cf", "timeout")
	m.SetBreakerState("cf", 1)

	if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("cf", "llama")); got != 1 {
		t.Errorf("provider requests: got %v", got)
	}
	if got := testutil.ToFloat64(m.providerErrors.WithLabelValues("cf", "timeout")); got != 1 {
		t.Errorf("provider errors: got %v", got)
	}
	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("cf")); got != 1 {
		t.Errorf("breaker state: got %v", got)
	}
}

func TestHandler_ExposesNamespacedMetrics(t *testing.T) {
	m := New(Config{Namespace: "careline"})
	m.RecordCacheHit()
	m.RecordHTTPRequest("/webhook", "POST", "200", 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"careline_cache_hits_total 1",
		"careline_http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}
