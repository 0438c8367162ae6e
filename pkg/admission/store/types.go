// Package store provides the shared state backends for the admission
// controller: sliding-window timestamps, violation records, and bans.
//
// The admission controller never touches a map or a database directly; it
// talks to the Store interface so tests can substitute a deterministic
// in-memory store and multi-process deployments can share counters through
// SQLite. Counter updates are read-then-write and deliberately not atomic
// across tiers: concurrent bursts can transiently exceed a limit by a small
// margin, which is an accepted approximation.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store could not be reached.
// The admission controller fails open on this error: the request is allowed
// and the event is reported, because chat availability takes priority over
// perfect quota enforcement.
var ErrUnavailable = errors.New("admission store unavailable")

// Ban is an active or expired ban for one identifier.
// A ban is inert and purgeable once now >= Expiry.
type Ban struct {
	Reason    string    `json:"reason"`
	StartTime time.Time `json:"start_time"`
	Expiry    time.Time `json:"expiry"`
}

// Active reports whether the ban is still in force at the given instant.
func (b *Ban) Active(now time.Time) bool {
	return b != nil && now.Before(b.Expiry)
}

// Store persists admission state. Implementations must be safe for
// concurrent use.
//
// Windows and violation records are ordered timestamp lists; callers prune
// them to the relevant trailing window before use. The ttl arguments let the
// backend expire records that stop being touched.
type Store interface {
	// LoadWindow returns the stored timestamps for a window key, or an
	// empty slice when the key is unknown.
	LoadWindow(ctx context.Context, key string) ([]time.Time, error)

	// SaveWindow replaces the timestamps for a window key.
	SaveWindow(ctx context.Context, key string, stamps []time.Time, ttl time.Duration) error

	// LoadViolations returns the recorded violation timestamps for an
	// identifier.
	LoadViolations(ctx context.Context, identifier string) ([]time.Time, error)

	// SaveViolations replaces the violation timestamps for an identifier.
	SaveViolations(ctx context.Context, identifier string, stamps []time.Time, ttl time.Duration) error

	// ClearViolations removes the violation record for an identifier.
	ClearViolations(ctx context.Context, identifier string) error

	// LoadBan returns the ban for an identifier, or nil when none exists.
	// Expired bans may still be returned; callers check Active.
	LoadBan(ctx context.Context, identifier string) (*Ban, error)

	// SaveBan stores a ban for an identifier.
	SaveBan(ctx context.Context, identifier string, ban *Ban) error

	// PurgeExpired removes expired windows, violation records, and bans.
	// Returns the number of records removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
