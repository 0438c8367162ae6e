package breaker

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic breaker tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		MonitoringPeriod: 2 * time.Minute,
		Now:              clock.Now,
	})

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		if !b.Allow() {
			t.Fatalf("expected Allow after %d failures", i+1)
		}
	}

	b.RecordFailure() // 5th failure trips the breaker
	if b.State() != StateOpen {
		t.Fatalf("expected Open after threshold, got %v", b.State())
	}
	if b.Allow() {
		t.Error("expected Allow=false while Open")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{FailureThreshold: 3, Now: clock.Now})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if b.State() != StateClosed {
		t.Fatalf("expected Closed after success reset, got %v", b.State())
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected Open after 3 consecutive failures, got %v", b.State())
	}
}

func TestBreaker_MonitoringPeriodRollsWindow(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{
		FailureThreshold: 3,
		MonitoringPeriod: time.Minute,
		Now:              clock.Now,
	})

	b.RecordFailure()
	b.RecordFailure()

	// Failures outside the monitoring period no longer count.
	clock.Advance(2 * time.Minute)
	b.RecordFailure()

	if b.State() != StateOpen {
		// Counter rolled, so only one failure is recorded.
		if got := b.Failures(); got != 1 {
			t.Fatalf("expected 1 failure after window roll, got %d", got)
		}
	} else {
		t.Fatal("breaker opened across monitoring period boundary")
	}
}

func TestBreaker_HalfOpenSingleTrial(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		Now:              clock.Now,
	})

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	if b.Allow() {
		t.Fatal("expected rejection while Open")
	}

	// Skipped for the full recovery timeout.
	clock.Advance(59 * time.Second)
	if b.Allow() {
		t.Fatal("expected rejection before recovery timeout")
	}

	clock.Advance(time.Second)
	if !b.Allow() {
		t.Fatal("expected one trial after recovery timeout")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected HalfOpen, got %v", b.State())
	}

	// Exactly one trial: concurrent callers are rejected.
	if b.Allow() {
		t.Error("expected rejection of second caller during trial")
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("expected Closed after trial success, got %v", b.State())
	}
	if !b.Allow() {
		t.Error("expected Allow after recovery")
	}
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{
		FailureThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
		Now:              clock.Now,
	})

	b.RecordFailure()
	b.RecordFailure()
	clock.Advance(30 * time.Second)

	if !b.Allow() {
		t.Fatal("expected trial admission")
	}
	b.RecordFailure()

	if b.State() != StateOpen {
		t.Fatalf("expected Open after trial failure, got %v", b.State())
	}

	// openedAt is refreshed: a trial is not admitted immediately.
	clock.Advance(29 * time.Second)
	if b.Allow() {
		t.Error("expected rejection before fresh recovery timeout elapses")
	}
	clock.Advance(time.Second)
	if !b.Allow() {
		t.Error("expected trial after fresh recovery timeout")
	}
}

func TestBreaker_ConcurrentReports(t *testing.T) {
	b := New(Config{FailureThreshold: 50, RecoveryTimeout: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				b.RecordFailure()
			} else {
				b.RecordSuccess()
			}
			b.Allow()
		}(i)
	}
	wg.Wait()

	// No assertion beyond absence of races; state must be a valid value.
	switch b.State() {
	case StateClosed, StateOpen, StateHalfOpen:
	default:
		t.Fatalf("invalid state %v", b.State())
	}
}

func TestSet_LazyCreationAndSnapshot(t *testing.T) {
	set := NewSet(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	a := set.Get("workers-ai")
	if a == nil {
		t.Fatal("expected breaker instance")
	}
	if set.Get("workers-ai") != a {
		t.Error("expected same breaker on repeated Get")
	}

	a.RecordFailure()
	set.Get("openai")

	states := set.States()
	if states["workers-ai"] != StateOpen {
		t.Errorf("expected workers-ai Open, got %v", states["workers-ai"])
	}
	if states["openai"] != StateClosed {
		t.Errorf("expected openai Closed, got %v", states["openai"])
	}
}
