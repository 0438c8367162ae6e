// Package dedupe collapses concurrent identical requests into a single
// computation.
//
// When several users ask the same (fingerprinted) question at the same time,
// only the first caller invokes the backend; everyone else attaches to the
// in-flight computation and receives the identical outcome, success or error.
package dedupe

import (
	"context"
	"sync"
)

// call is a single in-flight computation shared between callers.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Group coalesces concurrent computations by key.
//
// The check-or-insert of the in-flight entry is atomic with respect to
// concurrent callers sharing a key: exactly one caller becomes the owner and
// runs the computation. The entry is removed synchronously when the
// computation settles, before any waiter is released, so a caller arriving
// after settlement starts a fresh computation rather than observing a stale
// one.
type Group[V any] struct {
	mu       sync.Mutex
	inflight map[string]*call[V]
}

// New creates an empty deduplication group.
func New[V any]() *Group[V] {
	return &Group[V]{inflight: make(map[string]*call[V])}
}

// Do executes compute under the key, collapsing duplicates.
//
// If an identical computation is already in flight, Do attaches to it and
// returns its outcome with shared=true without invoking compute. Otherwise Do
// runs compute and resolves every attached waiter with the same result.
//
// The computation runs on a context detached from the owner's cancellation:
// one caller abandoning the wait (ctx cancelled) returns that caller's
// context error but never cancels the shared computation other waiters are
// attached to. The detached context still carries the owner's values for
// request-scoped metadata.
func (g *Group[V]) Do(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, bool, error) {
	g.mu.Lock()
	if c, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		return g.wait(ctx, c, true)
	}

	c := &call[V]{done: make(chan struct{})}
	g.inflight[key] = c
	g.mu.Unlock()

	go func() {
		val, err := compute(context.WithoutCancel(ctx))

		// Remove the entry before releasing waiters so late arrivals
		// start fresh instead of attaching to a settled call.
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()

		c.val = val
		c.err = err
		close(c.done)
	}()

	return g.wait(ctx, c, false)
}

// wait blocks until the call settles or the caller's context is cancelled.
func (g *Group[V]) wait(ctx context.Context, c *call[V], shared bool) (V, bool, error) {
	select {
	case <-c.done:
		return c.val, shared, c.err
	case <-ctx.Done():
		var zero V
		return zero, shared, ctx.Err()
	}
}

// InFlight returns the number of keys currently being computed.
func (g *Group[V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
