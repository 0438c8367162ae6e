package store

import (
	"context"
	"sync"
	"time"
)

// Memory implements Store using in-process maps. This is the default backend:
// fast, no persistence, all state lost on restart.
//
// Memory is thread-safe using sync.RWMutex. Records are created lazily and
// expire via TTL; a background sweep removes records nothing touches anymore.
type Memory struct {
	mu         sync.RWMutex
	windows    map[string]*stampRecord
	violations map[string]*stampRecord
	bans       map[string]*Ban

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

type stampRecord struct {
	stamps    []time.Time
	expiresAt time.Time
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// SweepInterval is how often expired records are removed.
	// Default: 1 minute. Negative disables the sweep.
	SweepInterval time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

// NewMemory creates an in-memory admission store with default settings.
func NewMemory() *Memory {
	return NewMemoryWithConfig(MemoryConfig{})
}

// NewMemoryWithConfig creates an in-memory admission store.
func NewMemoryWithConfig(cfg MemoryConfig) *Memory {
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Memory{
		windows:    make(map[string]*stampRecord),
		violations: make(map[string]*stampRecord),
		bans:       make(map[string]*Ban),
		now:        cfg.Now,
		done:       make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go m.sweepLoop(cfg.SweepInterval)
	}

	return m
}

// LoadWindow returns the stored timestamps for a window key.
func (m *Memory) LoadWindow(ctx context.Context, key string) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.windows[key]
	if !ok || !m.now().Before(rec.expiresAt) {
		return nil, nil
	}

	out := make([]time.Time, len(rec.stamps))
	copy(out, rec.stamps)
	return out, nil
}

// SaveWindow replaces the timestamps for a window key.
func (m *Memory) SaveWindow(ctx context.Context, key string, stamps []time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows[key] = &stampRecord{
		stamps:    append([]time.Time(nil), stamps...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// LoadViolations returns the violation timestamps for an identifier.
func (m *Memory) LoadViolations(ctx context.Context, identifier string) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.violations[identifier]
	if !ok || !m.now().Before(rec.expiresAt) {
		return nil, nil
	}

	out := make([]time.Time, len(rec.stamps))
	copy(out, rec.stamps)
	return out, nil
}

// SaveViolations replaces the violation timestamps for an identifier.
func (m *Memory) SaveViolations(ctx context.Context, identifier string, stamps []time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.violations[identifier] = &stampRecord{
		stamps:    append([]time.Time(nil), stamps...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// ClearViolations removes the violation record for an identifier.
func (m *Memory) ClearViolations(ctx context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.violations, identifier)
	return nil
}

// LoadBan returns the ban for an identifier, or nil.
func (m *Memory) LoadBan(ctx context.Context, identifier string) (*Ban, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ban, ok := m.bans[identifier]
	if !ok {
		return nil, nil
	}
	cp := *ban
	return &cp, nil
}

// SaveBan stores a ban for an identifier.
func (m *Memory) SaveBan(ctx context.Context, identifier string, ban *Ban) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ban
	m.bans[identifier] = &cp
	return nil
}

// PurgeExpired removes expired windows, violations, and bans.
func (m *Memory) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for key, rec := range m.windows {
		if !now.Before(rec.expiresAt) {
			delete(m.windows, key)
			purged++
		}
	}
	for id, rec := range m.violations {
		if !now.Before(rec.expiresAt) {
			delete(m.violations, id)
			purged++
		}
	}
	for id, ban := range m.bans {
		if !ban.Active(now) {
			delete(m.bans, id)
			purged++
		}
	}
	return purged, nil
}

// Close stops the background sweep.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// Size returns the total record count. Useful for monitoring and tests.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows) + len(m.violations) + len(m.bans)
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = m.PurgeExpired(context.Background(), m.now())
		case <-m.done:
			return
		}
	}
}
