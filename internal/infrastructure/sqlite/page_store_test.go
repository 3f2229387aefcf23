package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPageStore(t *testing.T) *PageStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	store := db.PageStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPageStore_GetMissing(t *testing.T) {
	store := newTestPageStore(t)

	body, found, err := store.Get(context.Background(), "md", "Buildings")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, body)
}

func TestPageStore_PutGet(t *testing.T) {
	store := newTestPageStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "md", "Buildings", []byte("{| |}")))

	body, found, err := store.Get(ctx, "md", "Buildings")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("{| |}"), body)

	// Namespaces are independent
	_, found, err = store.Get(ctx, "http", "Buildings")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPageStore_PutOverwrites(t *testing.T) {
	store := newTestPageStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "md", "k", []byte("old")))
	require.NoError(t, store.Put(ctx, "md", "k", []byte("newer")))

	body, _, err := store.Get(ctx, "md", "k")
	require.NoError(t, err)
	require.Equal(t, []byte("newer"), body)

	stat, err := store.Stat(ctx, "md", "k")
	require.NoError(t, err)
	require.Equal(t, int64(5), stat.Size)
}

func TestPageStore_PutEmptyBody(t *testing.T) {
	store := newTestPageStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "md", "empty", nil))

	body, found, err := store.Get(ctx, "md", "empty")
	require.NoError(t, err)
	require.True(t, found)
	require.Empty(t, body)
}

func TestPageStore_ListDeleteClear(t *testing.T) {
	store := newTestPageStore(t)
	ctx := context.Background()

	for _, key := range []string{"c", "a", "b"} {
		require.NoError(t, store.Put(ctx, "http", key, []byte(key)))
	}
	require.NoError(t, store.Put(ctx, "md", "a", []byte("a")))

	keys, err := store.List(ctx, "http")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)

	require.NoError(t, store.Delete(ctx, "http", "b"))
	require.NoError(t, store.Delete(ctx, "http", "missing"))

	keys, err = store.List(ctx, "http")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, keys)

	n, err := store.Clear(ctx, "http")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	keys, err = store.List(ctx, "http")
	require.NoError(t, err)
	require.Empty(t, keys)

	keys, err = store.List(ctx, "md")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, keys)
}

func TestPageStore_StatMissing(t *testing.T) {
	store := newTestPageStore(t)

	stat, err := store.Stat(context.Background(), "md", "none")
	require.NoError(t, err)
	require.Nil(t, stat)
	require.Equal(t, "sqlite", store.Driver())
}
