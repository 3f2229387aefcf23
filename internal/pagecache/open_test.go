package pagecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/factorytown/internal/config"
)

func TestOpen_FileBackendResolvesAgainstProjectDir(t *testing.T) {
	project := t.TempDir()
	cfg := config.Defaults()
	cfg.ProjectDir = project

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	require.Equal(t, DriverFile, store.Driver())

	require.NoError(t, store.Put(context.Background(), NamespaceMD, "Buildings", []byte("x")))
	_, err = os.Stat(filepath.Join(project, "data", "cache", "scrape", "md", "Buildings"))
	require.NoError(t, err)
}

func TestOpen_SQLiteBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = config.BackendSQLite
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "pages.db")

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	require.Equal(t, DriverSQLite, store.Driver())

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, NamespaceHTTP, "k", []byte("body")))
	keys, err := store.List(ctx, NamespaceHTTP)
	require.NoError(t, err)
	require.Equal(t, []string{"k"}, keys)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = "redis"

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}

func TestOpen_S3RequiresBucket(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = config.BackendS3

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}
