package cachemanager

import (
	"context"
	"time"
)

// LoadFunc loads the value for input from the backing source. found is false
// when the source has no value; misses are not cached.
type LoadFunc[V any, I any] func(ctx context.Context, input I) (value V, found bool, err error)

// ReadThroughCache answers from cache when it can and otherwise loads from
// the backing source, caching what it finds. Entries that keep being read
// stay cached; idle ones expire after their TTL.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              LoadFunc[V, I]
	shouldSkipCache bool
}

// NewReadThroughCache wraps fn with cache. shouldSkipCache bypasses the
// cache entirely.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn LoadFunc[V, I],
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache,
	}
}

// GetWithRefresh returns the cached value for key, extending its TTL, or
// loads it with input.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, bool, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.GetWithRefresh(ctx, key, ttl); ok {
		return value, true, nil
	}
	return r.load(ctx, key, input, ttl)
}

func (r *ReadThroughCache[K, V, I]) load(ctx context.Context, key K, input I, ttl time.Duration) (V, bool, error) {
	value, found, err := r.fn(ctx, input)
	if err != nil || !found {
		return value, found, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, true, nil
}

// Put stores value in the cache, e.g. after a write-through to the source.
func (r *ReadThroughCache[K, V, I]) Put(ctx context.Context, key K, value V, ttl time.Duration) {
	if r.shouldSkipCache {
		return
	}
	r.cache.Set(ctx, key, value, ttl)
}

// Invalidate drops keys from the cache.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, keys ...K) error {
	return r.cache.Delete(ctx, keys...)
}

// InvalidateAll drops every cached entry.
func (r *ReadThroughCache[K, V, I]) InvalidateAll(ctx context.Context) error {
	return r.cache.Flush(ctx)
}
