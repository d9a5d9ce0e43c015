package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "feed:v1:acme:abc", []byte(`{"total":3}`), time.Minute))

	value, ok, err := store.Get(ctx, "feed:v1:acme:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"total":3}`), value)

	_, ok, err = store.Get(ctx, "feed:v1:acme:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "post:v1:acme:p1", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, ok, err := store.Get(ctx, "post:v1:acme:p1")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as absent")
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreDel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, store.Del(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Del(ctx, "k"))
}

func TestMemoryStoreDelPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "feed:v1:acme:a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "feed:v1:acme:b", []byte("2"), time.Minute))
	require.NoError(t, store.Set(ctx, "feed:v1:globex:a", []byte("3"), time.Minute))
	require.NoError(t, store.Set(ctx, "post:v1:acme:p1", []byte("4"), time.Minute))

	count, err := store.DelPrefix(ctx, "feed:v1:acme:")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok, _ := store.Get(ctx, "feed:v1:acme:a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "feed:v1:globex:a")
	assert.True(t, ok, "other tenant prefix must be untouched")
	_, ok, _ = store.Get(ctx, "post:v1:acme:p1")
	assert.True(t, ok, "post namespace must be untouched")
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Minute))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}
