package cache

import (
	"context"
	"time"
)

// Store is the minimal contract the read-through layer depends on. Values are
// opaque JSON payloads; the store never interprets them. Backends must treat
// expired entries as absent on Get (lazy expiry).
type Store interface {
	// Set stores value under key with the given TTL. A non-positive TTL means
	// the entry only disappears via Del/DelPrefix.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the stored value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Del removes a single key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// DelPrefix removes every key beginning with prefix and reports how many
	// entries were dropped. Concurrent readers see either the old value or
	// nothing, never a partial one.
	DelPrefix(ctx context.Context, prefix string) (int, error)
}
