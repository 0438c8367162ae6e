package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory(clock *testClock) *Memory {
	return NewMemoryWithConfig(MemoryConfig{
		SweepInterval: -1,
		Now:           clock.Now,
	})
}

func TestMemory_WindowRoundTrip(t *testing.T) {
	clock := newTestClock()
	m := newTestMemory(clock)
	defer m.Close()

	ctx := context.Background()
	stamps := []time.Time{clock.Now(), clock.Now().Add(time.Second)}

	if err := m.SaveWindow(ctx, "burst:user-1", stamps, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := m.LoadWindow(ctx, "burst:user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 stamps, got %d", len(got))
	}
	if !got[0].Equal(stamps[0]) || !got[1].Equal(stamps[1]) {
		t.Errorf("stamps do not match: %v vs %v", got, stamps)
	}
}

func TestMemory_UnknownKeyIsEmpty(t *testing.T) {
	m := newTestMemory(newTestClock())
	defer m.Close()

	got, err := m.LoadWindow(context.Background(), "never-saved")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty window for unknown key, got %v", got)
	}
}

func TestMemory_WindowExpiresByTTL(t *testing.T) {
	clock := newTestClock()
	m := newTestMemory(clock)
	defer m.Close()

	ctx := context.Background()
	if err := m.SaveWindow(ctx, "k", []time.Time{clock.Now()}, time.Minute); err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Minute)

	got, err := m.LoadWindow(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected expired window to read as empty, got %v", got)
	}
}

func TestMemory_ViolationsClear(t *testing.T) {
	clock := newTestClock()
	m := newTestMemory(clock)
	defer m.Close()

	ctx := context.Background()
	if err := m.SaveViolations(ctx, "user-1", []time.Time{clock.Now()}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearViolations(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	got, err := m.LoadViolations(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected cleared violations, got %v", got)
	}
}

func TestMemory_BanRoundTrip(t *testing.T) {
	clock := newTestClock()
	m := newTestMemory(clock)
	defer m.Close()

	ctx := context.Background()
	ban := &Ban{
		Reason:    "repeated rate limit violations",
		StartTime: clock.Now(),
		Expiry:    clock.Now().Add(time.Hour),
	}
	if err := m.SaveBan(ctx, "user-1", ban); err != nil {
		t.Fatal(err)
	}

	got, err := m.LoadBan(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected stored ban")
	}
	if !got.Active(clock.Now()) {
		t.Error("expected ban to be active")
	}

	clock.Advance(time.Hour)
	if got.Active(clock.Now()) {
		t.Error("expected ban to be inactive at expiry")
	}

	none, err := m.LoadBan(ctx, "user-2")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Errorf("expected nil ban for unknown identifier, got %+v", none)
	}
}

func TestMemory_PurgeExpired(t *testing.T) {
	clock := newTestClock()
	m := newTestMemory(clock)
	defer m.Close()

	ctx := context.Background()
	m.SaveWindow(ctx, "w1", []time.Time{clock.Now()}, time.Minute)
	m.SaveWindow(ctx, "w2", []time.Time{clock.Now()}, time.Hour)
	m.SaveViolations(ctx, "v1", []time.Time{clock.Now()}, time.Minute)
	m.SaveBan(ctx, "b1", &Ban{
		Reason:    "test",
		StartTime: clock.Now(),
		Expiry:    clock.Now().Add(time.Minute),
	})

	clock.Advance(2 * time.Minute)

	purged, err := m.PurgeExpired(ctx, clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if purged != 3 {
		t.Errorf("expected 3 purged records, got %d", purged)
	}
	if m.Size() != 1 {
		t.Errorf("expected 1 surviving record, got %d", m.Size())
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.SaveWindow(ctx, "shared", []time.Time{time.Now()}, time.Minute)
				m.LoadWindow(ctx, "shared")
				m.SaveViolations(ctx, "shared", []time.Time{time.Now()}, time.Minute)
				m.LoadBan(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
