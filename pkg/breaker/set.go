package breaker

import "sync"

// Set is a registry of circuit breakers keyed by provider name.
// Breakers are created lazily with the shared config on first access.
type Set struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewSet creates an empty breaker registry.
func NewSet(cfg Config) *Set {
	return &Set{
		cfg:      cfg,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named provider, creating it if needed.
func (s *Set) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[name]
	if !ok {
		b = New(s.cfg)
		s.breakers[name] = b
	}
	return b
}

// States returns a snapshot of every registered breaker's state.
// Used by the readiness endpoint and the metrics collector.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make(map[string]State, len(s.breakers))
	for name, b := range s.breakers {
		states[name] = b.State()
	}
	return states
}
