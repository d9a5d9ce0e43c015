// Package cache implements the short-TTL read-through layer fronting feed and
// post queries, plus the tenant-scoped invalidation primitives. It is a pure
// performance layer: any cached value can be rebuilt by re-running its fetcher.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/haleyhq/pulseboard/internal/perf"
	"github.com/haleyhq/pulseboard/pkg/cache"
)

// Microcache wraps a Store with get-or-set semantics and records hit/miss/bust
// events. Construct one per process and inject it; tests build isolated
// instances over a MemoryStore.
type Microcache struct {
	store cache.Store
	perf  *perf.Recorder
}

func New(store cache.Store, recorder *perf.Recorder) *Microcache {
	return &Microcache{store: store, perf: recorder}
}

// GetOrSet returns the cached value for key, or invokes fetch, stores the
// result with the given TTL and returns it. fromCache reports which path ran.
//
// There is deliberately no single-flight dedup: concurrent misses for the same
// key each run fetch and the last Set wins. The TTLs here are short enough
// that duplicate work under contention is cheaper than a lock.
func GetOrSet[T any](ctx context.Context, m *Microcache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (value T, fromCache bool, err error) {
	if m != nil {
		if raw, ok, getErr := m.store.Get(ctx, key); getErr == nil && ok {
			if unmarshalErr := json.Unmarshal(raw, &value); unmarshalErr == nil {
				m.perf.RecordCache(perf.CacheHit, key, 1)
				return value, true, nil
			}
			// Undecodable entry: treat as a miss and let the fresh value
			// overwrite it below.
		}
	}

	value, err = fetch(ctx)
	if err != nil {
		return value, false, err
	}

	if m != nil {
		if raw, marshalErr := json.Marshal(value); marshalErr == nil {
			_ = m.store.Set(ctx, key, raw, ttl)
		}
		m.perf.RecordCache(perf.CacheMiss, key, 1)
	}

	return value, false, nil
}

// BustCompany drops every cached feed page for the tenant.
func (m *Microcache) BustCompany(ctx context.Context, slug string) {
	if m == nil {
		return
	}
	prefix := "feed:v1:" + slug + ":"
	count, err := m.store.DelPrefix(ctx, prefix)
	if err != nil {
		return
	}
	m.perf.RecordCache(perf.CacheBust, prefix, count)
}

// BustGroup drops every cached feed page for one group of the tenant.
func (m *Microcache) BustGroup(ctx context.Context, slug string, groupID uuid.UUID) {
	if m == nil {
		return
	}
	prefix := "groupfeed:v1:" + slug + ":" + groupID.String() + ":"
	count, err := m.store.DelPrefix(ctx, prefix)
	if err != nil {
		return
	}
	m.perf.RecordCache(perf.CacheBust, prefix, count)
}

// BustPost drops the single-post entry.
func (m *Microcache) BustPost(ctx context.Context, slug string, postID uuid.UUID) {
	if m == nil {
		return
	}
	key := PostKey(slug, postID)
	if err := m.store.Del(ctx, key); err != nil {
		return
	}
	m.perf.RecordCache(perf.CacheBust, key, 1)
}
