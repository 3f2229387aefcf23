package pagecache

import (
	"context"
	"fmt"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/infrastructure/sqlite"
	"github.com/zjrosen/factorytown/internal/log"
)

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*S3Store)(nil)
	_ Store = (*sqlite.PageStore)(nil)
)

// Open builds the backend selected by cfg.Cache.Backend and wraps it in the
// memory layer. Relative paths resolve against cfg.ProjectDir.
func Open(ctx context.Context, cfg config.Config, opts ...S3Option) (*Cached, error) {
	backend, err := openBackend(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCache, "Opened page cache", "driver", backend.Driver(), "memory_ttl", cfg.Cache.MemoryTTL)
	return NewCached(backend, cfg.Cache.MemoryTTL), nil
}

func openBackend(ctx context.Context, cfg config.Config, opts ...S3Option) (Store, error) {
	switch cfg.Cache.Backend {
	case "", config.BackendFile:
		return NewFileStore(cfg.ResolvePath(cfg.Cache.Dir))
	case config.BackendSQLite:
		db, err := sqlite.NewDB(cfg.ResolvePath(cfg.Cache.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite page cache: %w", err)
		}
		return db.PageStore(), nil
	case config.BackendS3:
		return NewS3Store(ctx, cfg.Cache.S3, opts...)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
