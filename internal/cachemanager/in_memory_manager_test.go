package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pageKey string

func newPageCache() *InMemoryCacheManager[pageKey, []byte] {
	return NewInMemoryCacheManager[pageKey, []byte]("pages", DefaultExpiration, DefaultCleanupInterval)
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newPageCache()
	cache.Set(context.Background(), "md/Buildings", []byte("{| |}"), DefaultExpiration)

	got, ok := cache.Get(context.Background(), "md/Buildings")
	require.True(t, ok)
	require.Equal(t, []byte("{| |}"), got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := newPageCache()

	got, ok := cache.Get(context.Background(), "md/Buildings")
	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := newPageCache()
	cache.cache.Set("md/Buildings", "not bytes", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "md/Buildings")
	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_Expires(t *testing.T) {
	cache := newPageCache()
	cache.Set(context.Background(), "http/x", []byte("x"), time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "http/x")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	_, ok := cache.GetWithRefresh(ctx, "a", time.Hour)
	require.False(t, ok)

	cache.Set(ctx, "a", []byte("A"), 50*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "a", time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("A"), got)

	time.Sleep(100 * time.Millisecond)
	_, ok = cache.Get(ctx, "a")
	require.True(t, ok, "the read moved expiry out by an hour")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	require.NoError(t, cache.Delete(ctx))

	cache.Set(ctx, "a", []byte("A"), DefaultExpiration)
	cache.Set(ctx, "b", []byte("B"), DefaultExpiration)

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	require.True(t, ok)

	require.NoError(t, cache.Flush(ctx))
	_, ok = cache.Get(ctx, "b")
	require.False(t, ok)
	require.Zero(t, cache.Len())
}
