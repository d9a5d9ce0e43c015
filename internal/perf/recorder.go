package perf

import (
	"sync"
	"time"
)

const (
	CacheHit  = "hit"
	CacheMiss = "miss"
	CacheBust = "bust"

	defaultCapacity = 512
)

// CacheEvent records one cache interaction.
type CacheEvent struct {
	Kind  string    `json:"kind"` // hit | miss | bust
	Key   string    `json:"key"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// RouteSample records one timed query execution.
type RouteSample struct {
	Route       string        `json:"route"`
	Duration    time.Duration `json:"duration_ms"`
	Count       int           `json:"count"`
	Page        int           `json:"page"`
	Limit       int           `json:"limit"`
	CompanySlug string        `json:"company_slug"`
	At          time.Time     `json:"at"`
}

// Snapshot is a point-in-time copy of the recorder's buffers and tallies.
type Snapshot struct {
	Hits         int64         `json:"hits"`
	Misses       int64         `json:"misses"`
	Busts        int64         `json:"busts"`
	CacheEvents  []CacheEvent  `json:"cache_events"`
	RouteSamples []RouteSample `json:"route_samples"`
}

// Recorder keeps the most recent cache events and route samples in fixed-size
// ring buffers. It is an observability sink only: recording never fails and
// never blocks beyond a mutex.
type Recorder struct {
	mu sync.Mutex

	hits   int64
	misses int64
	busts  int64

	cacheEvents []CacheEvent
	cacheNext   int
	cacheFull   bool

	routeSamples []RouteSample
	routeNext    int
	routeFull    bool
}

func NewRecorder() *Recorder {
	return &Recorder{
		cacheEvents:  make([]CacheEvent, defaultCapacity),
		routeSamples: make([]RouteSample, defaultCapacity),
	}
}

func (r *Recorder) RecordCache(kind, key string, count int) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case CacheHit:
		r.hits++
	case CacheMiss:
		r.misses++
	case CacheBust:
		r.busts++
	}

	r.cacheEvents[r.cacheNext] = CacheEvent{Kind: kind, Key: key, Count: count, At: time.Now()}
	r.cacheNext++
	if r.cacheNext == len(r.cacheEvents) {
		r.cacheNext = 0
		r.cacheFull = true
	}
}

func (r *Recorder) RecordRoute(route string, duration time.Duration, count, page, limit int, companySlug string) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routeSamples[r.routeNext] = RouteSample{
		Route:       route,
		Duration:    duration,
		Count:       count,
		Page:        page,
		Limit:       limit,
		CompanySlug: companySlug,
		At:          time.Now(),
	}
	r.routeNext++
	if r.routeNext == len(r.routeSamples) {
		r.routeNext = 0
		r.routeFull = true
	}
}

// Snapshot returns buffered events oldest-first.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		Hits:         r.hits,
		Misses:       r.misses,
		Busts:        r.busts,
		CacheEvents:  unroll(r.cacheEvents, r.cacheNext, r.cacheFull),
		RouteSamples: unroll(r.routeSamples, r.routeNext, r.routeFull),
	}
}

func unroll[T any](ring []T, next int, full bool) []T {
	if !full {
		out := make([]T, next)
		copy(out, ring[:next])
		return out
	}

	out := make([]T, 0, len(ring))
	out = append(out, ring[next:]...)
	out = append(out, ring[:next]...)
	return out
}
