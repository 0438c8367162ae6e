// Package respcache provides an exact-match response cache with TTL.
//
// The chat pipeline probes the cache after admission and deduplication and
// writes back generated answers that clear the configured confidence floor.
// Static fallback answers are never written here; that policy is enforced by
// the caller, not the cache.
package respcache

import (
	"sync"
	"time"
)

// Cache is a thread-safe TTL cache keyed by request fingerprint.
//
// Entries are valid while now < createdAt+ttl; expired entries are treated as
// absent and removed lazily on read plus periodically by a background sweep.
// When the cache reaches max capacity the oldest entry is evicted. Writes are
// last-write-wins; stale reads within TTL are acceptable.
type Cache[V any] struct {
	// entries maps fingerprints to cached values.
	entries map[string]*entry[V]

	// maxEntries caps the cache size (0 = unlimited).
	maxEntries int

	// now is the clock; tests inject a deterministic one.
	now func() time.Time

	mu sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

type entry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry[V]) expiresAt() time.Time {
	return e.createdAt.Add(e.ttl)
}

// Options configures a Cache.
type Options struct {
	// MaxEntries caps cache size; the oldest entry is evicted at capacity.
	// Zero means unlimited.
	MaxEntries int

	// SweepInterval is how often expired entries are removed in the
	// background. Zero disables the sweep; expiry still happens lazily.
	SweepInterval time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

// New creates a response cache.
func New[V any](opts Options) *Cache[V] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Cache[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: opts.MaxEntries,
		now:        now,
		stopCh:     make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	}

	return c
}

// Get returns the cached value for the fingerprint if present and unexpired.
func (c *Cache[V]) Get(fingerprint string) (V, bool) {
	var zero V

	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if !c.now().Before(e.expiresAt()) {
		// Expired: treat as absent and drop it.
		c.mu.Lock()
		if cur, ok := c.entries[fingerprint]; ok && cur == e {
			delete(c.entries, fingerprint)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Put stores a value under the fingerprint, unconditionally overwriting any
// previous entry.
func (c *Cache[V]) Put(fingerprint string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[fingerprint]; !exists {
			c.evictOldestLocked()
		}
	}

	c.entries[fingerprint] = &entry[V]{
		value:     value,
		createdAt: c.now(),
		ttl:       ttl,
	}
}

// Delete removes an entry.
func (c *Cache[V]) Delete(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fingerprint)
}

// Size returns the current entry count, including not-yet-swept expired ones.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweep goroutine.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// evictOldestLocked evicts the entry with the oldest createdAt.
// Caller must hold the write lock.
func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)

	for key, e := range c.entries {
		if !found || e.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.createdAt
			found = true
		}
	}

	if found {
		delete(c.entries, oldestKey)
	}
}

// sweepLoop periodically removes expired entries until Close is called.
func (c *Cache[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if !now.Before(e.expiresAt()) {
			delete(c.entries, key)
		}
	}
}
