package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so at-least-once outbox
// delivery does not re-run a handler's side effects.
type IdempotencyStore interface {
	// MarkProcessed records the event ID with a TTL. Returns false when the
	// ID was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the event ID was already recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig tunes the dedup window for an idempotent handler.
type IdempotencyConfig struct {
	// TTL bounds the dedup window; after it passes the same event ID runs
	// again.
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig keeps processed IDs for a day.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
