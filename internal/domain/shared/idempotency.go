package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys for a bounded window so repeated
// triggers of the same action can be dropped. The scan pipeline uses it
// to suppress duplicate reads of the same barcode.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. It returns true when the
	// key was newly recorded and false when it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// IsProcessed reports whether the key is currently recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Clear drops the key before its TTL runs out, so the action it
	// guarded can fire again immediately.
	Clear(ctx context.Context, key string) error
	// Close releases any resources held by the store.
	Close() error
}
