// Package cachemanager provides a TTL'd in-process cache and a read-through
// wrapper used in front of the page stores.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a keyed cache with per-entry TTLs. Reads extend the TTL
// of the entry they hit.
type CacheManager[K comparable, V any] interface {
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
