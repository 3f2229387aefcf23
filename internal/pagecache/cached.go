package pagecache

import (
	"context"
	"time"

	"github.com/zjrosen/factorytown/internal/cachemanager"
	"github.com/zjrosen/factorytown/internal/log"
)

type entry struct {
	namespace string
	key       string
}

// Cached fronts a Store with an in-process read-through layer. Writes go to
// the store first and then to memory. It also validates namespaces and keys
// for every backend.
type Cached struct {
	store Store
	ttl   time.Duration
	mem   *cachemanager.InMemoryCacheManager[string, []byte]
	pages *cachemanager.ReadThroughCache[string, []byte, entry]
}

var _ Store = (*Cached)(nil)

// NewCached wraps store. A ttl of zero disables the memory layer.
func NewCached(store Store, ttl time.Duration) *Cached {
	c := &Cached{
		store: store,
		ttl:   ttl,
		mem:   cachemanager.NewInMemoryCacheManager[string, []byte]("pages", ttl, cachemanager.DefaultCleanupInterval),
	}
	c.pages = cachemanager.NewReadThroughCache[string, []byte, entry](c.mem, c.load, ttl <= 0)
	return c
}

func (c *Cached) load(ctx context.Context, e entry) ([]byte, bool, error) {
	return c.store.Get(ctx, e.namespace, e.key)
}

func memKey(ns, key string) string {
	return ns + "/" + key
}

// Unwrap returns the backing store.
func (c *Cached) Unwrap() Store { return c.store }

// Driver names the backing store.
func (c *Cached) Driver() string { return c.store.Driver() }

// Close closes the backing store.
func (c *Cached) Close() error {
	_ = c.mem.Flush(context.Background())
	return c.store.Close()
}

// Get answers from memory when it can, otherwise from the store. A memory
// hit restarts the entry's TTL, so pages read on every rebuild stay hot.
func (c *Cached) Get(ctx context.Context, ns, key string) ([]byte, bool, error) {
	if err := checkEntry(ns, key); err != nil {
		return nil, false, err
	}
	return c.pages.GetWithRefresh(ctx, memKey(ns, key), entry{namespace: ns, key: key}, c.ttl)
}

// Put writes through to the store.
func (c *Cached) Put(ctx context.Context, ns, key string, body []byte) error {
	if err := checkEntry(ns, key); err != nil {
		return err
	}
	if err := c.store.Put(ctx, ns, key, body); err != nil {
		return err
	}
	c.pages.Put(ctx, memKey(ns, key), body, c.ttl)
	return nil
}

// Delete removes the key from both layers.
func (c *Cached) Delete(ctx context.Context, ns, key string) error {
	if err := checkEntry(ns, key); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, ns, key); err != nil {
		return err
	}
	return c.pages.Invalidate(ctx, memKey(ns, key))
}

// List lists the store.
func (c *Cached) List(ctx context.Context, ns string) ([]string, error) {
	if err := CheckNamespace(ns); err != nil {
		return nil, err
	}
	return c.store.List(ctx, ns)
}

// Clear empties the namespace in the store and drops the memory layer.
func (c *Cached) Clear(ctx context.Context, ns string) (int, error) {
	if err := CheckNamespace(ns); err != nil {
		return 0, err
	}
	n, err := c.store.Clear(ctx, ns)
	if err != nil {
		return n, err
	}
	if err := c.pages.InvalidateAll(ctx); err != nil {
		return n, err
	}
	log.Info(log.CatCache, "Cleared namespace", "namespace", ns, "driver", c.store.Driver(), "removed", n)
	return n, nil
}

// Invalidate drops the memory layer without touching the store, e.g. after
// the file store was changed by another process.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.pages.InvalidateAll(ctx)
}
