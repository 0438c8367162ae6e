package respcache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
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

func TestCache_GetPut(t *testing.T) {
	clock := newTestClock()
	c := New[string](Options{Now: clock.Now})
	defer c.Close()

	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("fp1", "answer one", 10*time.Minute)

	got, ok := c.Get("fp1")
	if !ok || got != "answer one" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "answer one", got, ok)
	}
}

func TestCache_ExpiryTreatedAsAbsent(t *testing.T) {
	clock := newTestClock()
	c := New[string](Options{Now: clock.Now})
	defer c.Close()

	c.Put("fp1", "cached", 10*time.Minute)

	clock.Advance(10*time.Minute - time.Second)
	if _, ok := c.Get("fp1"); !ok {
		t.Fatal("expected hit just before TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected miss at TTL boundary")
	}

	// Expired entry was dropped on read.
	if c.Size() != 0 {
		t.Errorf("expected expired entry removed, size=%d", c.Size())
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	clock := newTestClock()
	c := New[string](Options{Now: clock.Now})
	defer c.Close()

	c.Put("fp1", "first", time.Minute)
	c.Put("fp1", "second", time.Minute)

	got, _ := c.Get("fp1")
	if got != "second" {
		t.Errorf("expected last write to win, got %q", got)
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	clock := newTestClock()
	c := New[int](Options{MaxEntries: 3, Now: clock.Now})
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("fp%d", i), i, time.Hour)
		clock.Advance(time.Second)
	}

	c.Put("fp3", 3, time.Hour)

	if _, ok := c.Get("fp0"); ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := c.Get("fp3"); !ok {
		t.Error("expected newest entry present")
	}
	if c.Size() != 3 {
		t.Errorf("expected size 3, got %d", c.Size())
	}
}

func TestCache_ZeroTTLIgnored(t *testing.T) {
	c := New[string](Options{})
	defer c.Close()

	c.Put("fp1", "x", 0)
	if c.Size() != 0 {
		t.Error("expected zero-TTL put to be ignored")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](Options{MaxEntries: 100})
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("fp%d", n%10)
			c.Put(key, n, time.Minute)
			c.Get(key)
		}(i)
	}
	wg.Wait()
}

func TestFingerprint_NormalizationCollision(t *testing.T) {
	a := Fingerprint("  What IS   PrEP? ", "en", "llama-3-8b")
	b := Fingerprint("what is prep?", "en", "llama-3-8b")
	if a != b {
		t.Error("expected normalized texts to share a fingerprint")
	}
}

func TestFingerprint_Dimensions(t *testing.T) {
	base := Fingerprint("what is prep?", "en", "llama-3-8b")

	tests := []struct {
		name               string
		text, lang, model  string
	}{
		{"different text", "what is hiv?", "en", "llama-3-8b"},
		{"different language", "what is prep?", "th", "llama-3-8b"},
		{"different model", "what is prep?", "en", "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Fingerprint(tt.text, tt.lang, tt.model) == base {
				t.Error("expected distinct fingerprint")
			}
		})
	}
}
