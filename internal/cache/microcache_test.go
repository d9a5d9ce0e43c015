package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haleyhq/pulseboard/internal/perf"
	"github.com/haleyhq/pulseboard/pkg/cache"
)

type feedStub struct {
	Total int      `json:"total"`
	IDs   []string `json:"ids"`
}

func newMicrocache() (*Microcache, *perf.Recorder) {
	recorder := perf.NewRecorder()
	return New(cache.NewMemoryStore(), recorder), recorder
}

func TestGetOrSetRoundTrip(t *testing.T) {
	m, recorder := newMicrocache()
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (feedStub, error) {
		calls++
		return feedStub{Total: 2, IDs: []string{"a", "b"}}, nil
	}

	v1, fromCache, err := GetOrSet(ctx, m, "feed:v1:acme:h1", TTLFeed, fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, feedStub{Total: 2, IDs: []string{"a", "b"}}, v1)

	v2, fromCache, err := GetOrSet(ctx, m, "feed:v1:acme:h1", TTLFeed, fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls, "fetcher runs exactly once within TTL")

	snap := recorder.Snapshot()
	assert.Equal(t, int64(1), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
}

func TestGetOrSetFetchErrorNotCached(t *testing.T) {
	m, _ := newMicrocache()
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (feedStub, error) {
		calls++
		if calls == 1 {
			return feedStub{}, assert.AnError
		}
		return feedStub{Total: 1}, nil
	}

	_, _, err := GetOrSet(ctx, m, "k", TTLDefault, fetch)
	require.Error(t, err)

	v, fromCache, err := GetOrSet(ctx, m, "k", TTLDefault, fetch)
	require.NoError(t, err)
	assert.False(t, fromCache, "errors must not be cached")
	assert.Equal(t, 1, v.Total)
}

func TestBustCompanyScoping(t *testing.T) {
	m, recorder := newMicrocache()
	ctx := context.Background()

	calls := map[string]int{}
	fetchFor := func(name string) func(context.Context) (feedStub, error) {
		return func(context.Context) (feedStub, error) {
			calls[name]++
			return feedStub{Total: 1}, nil
		}
	}

	postID := uuid.New()
	keys := map[string]string{
		"acme-feed-1": FeedKey("acme", "h1"),
		"acme-feed-2": FeedKey("acme", "h2"),
		"globex-feed": FeedKey("globex", "h1"),
		"acme-post":   PostKey("acme", postID),
	}
	for name, key := range keys {
		_, _, err := GetOrSet(ctx, m, key, time.Minute, fetchFor(name))
		require.NoError(t, err)
	}

	m.BustCompany(ctx, "acme")

	for name, key := range keys {
		_, fromCache, err := GetOrSet(ctx, m, key, time.Minute, fetchFor(name))
		require.NoError(t, err)
		switch name {
		case "acme-feed-1", "acme-feed-2":
			assert.False(t, fromCache, "%s must be re-fetched after bust", name)
			assert.Equal(t, 2, calls[name])
		default:
			assert.True(t, fromCache, "%s must survive the bust", name)
			assert.Equal(t, 1, calls[name])
		}
	}

	assert.Equal(t, int64(1), recorder.Snapshot().Busts)
}

func TestBustGroupAndPost(t *testing.T) {
	m, _ := newMicrocache()
	ctx := context.Background()

	groupID := uuid.New()
	postID := uuid.New()
	groupKey := GroupFeedKey("acme", groupID, "h1")
	otherGroupKey := GroupFeedKey("acme", uuid.New(), "h1")
	postKey := PostKey("acme", postID)

	fetch := func(context.Context) (int, error) { return 42, nil }
	for _, key := range []string{groupKey, otherGroupKey, postKey} {
		_, _, err := GetOrSet(ctx, m, key, time.Minute, fetch)
		require.NoError(t, err)
	}

	m.BustGroup(ctx, "acme", groupID)
	m.BustPost(ctx, "acme", postID)

	_, fromCache, _ := GetOrSet(ctx, m, groupKey, time.Minute, fetch)
	assert.False(t, fromCache)
	_, fromCache, _ = GetOrSet(ctx, m, otherGroupKey, time.Minute, fetch)
	assert.True(t, fromCache)
	_, fromCache, _ = GetOrSet(ctx, m, postKey, time.Minute, fetch)
	assert.False(t, fromCache)
}

func TestGetOrSetNilMicrocache(t *testing.T) {
	v, fromCache, err := GetOrSet(context.Background(), nil, "k", time.Second, func(context.Context) (string, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "direct", v)
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, TTLFeed, TTLFor("/api/feed"))
	assert.Equal(t, TTLFeed, TTLFor("/api/groups/123/feed"))
	assert.Equal(t, TTLPost, TTLFor("/api/posts/"+uuid.NewString()))
	assert.Equal(t, TTLDefault, TTLFor("/api/leaderboard"))
	assert.Equal(t, TTLDefault, TTLFor("/api/posts/not-a-uuid"))
}
