package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which keys have already been handled.
// Keys are opaque strings; event handlers use "<handler>:<event id>".
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if it was already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claimed key so the work can be attempted again
	Release(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a handled key is remembered
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool

	// ReleaseOnFailure frees the key when the wrapped handler fails,
	// so a redelivered event is handled again instead of being dropped
	ReleaseOnFailure bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:              24 * time.Hour,
		Enabled:          true,
		ReleaseOnFailure: true,
	}
}
