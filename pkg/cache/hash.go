package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash derives a short deterministic digest for a cache key segment from any
// JSON-serializable value. encoding/json writes struct fields in declaration
// order and sorts map keys, so the same logical value always hashes the same.
// Keys are still namespaced per tenant; the hash only scopes filter variants,
// so a (theoretical) collision degrades freshness, not tenant isolation.
func Hash(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		// Non-serializable values cannot be cached meaningfully; fall back to
		// the type description so callers still get a stable-ish key.
		payload = []byte(fmt.Sprintf("%T", v))
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}
