package pagecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_Layout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NamespaceMD, "Buildings", []byte("{| |}")))

	// <root>/<ns>/<key>
	body, err := os.ReadFile(filepath.Join(root, "md", "Buildings"))
	require.NoError(t, err)
	require.Equal(t, "{| |}", string(body))

	got, found, err := store.Get(ctx, NamespaceMD, "Buildings")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, body, got)
}

func TestFileStore_GetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	got, found, err := store.Get(context.Background(), NamespaceHTTP, "nope")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)
}

func TestFileStore_PutOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NamespaceHTTP, "k", []byte("one")))
	require.NoError(t, store.Put(ctx, NamespaceHTTP, "k", []byte("two")))

	got, _, err := store.Get(ctx, NamespaceHTTP, "k")
	require.NoError(t, err)
	require.Equal(t, "two", string(got))

	// No temp files left behind
	keys, err := store.List(ctx, NamespaceHTTP)
	require.NoError(t, err)
	require.Equal(t, []string{"k"}, keys)
}

func TestFileStore_ListDeleteClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	keys, err := store.List(ctx, NamespaceMD)
	require.NoError(t, err)
	require.Empty(t, keys, "missing namespace directory lists nothing")

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, store.Put(ctx, NamespaceMD, k, []byte(k)))
	}
	require.NoError(t, store.Put(ctx, NamespaceHTTP, "a", []byte("a")))

	keys, err = store.List(ctx, NamespaceMD)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)

	require.NoError(t, store.Delete(ctx, NamespaceMD, "b"))
	require.NoError(t, store.Delete(ctx, NamespaceMD, "b"), "deleting twice is fine")

	n, err := store.Clear(ctx, NamespaceMD)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	keys, err = store.List(ctx, NamespaceHTTP)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, keys)
}

func TestFileStore_RejectsBadEntries(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		ns   string
		key  string
		err  error
	}{
		{"unknown namespace", "html", "k", ErrUnknownNamespace},
		{"empty key", NamespaceMD, "", ErrInvalidKey},
		{"traversal", NamespaceMD, "..", ErrInvalidKey},
		{"separator", NamespaceMD, "a/b", ErrInvalidKey},
		{"backslash", NamespaceMD, `a\b`, ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, store.Put(ctx, tt.ns, tt.key, nil), tt.err)
			_, _, err := store.Get(ctx, tt.ns, tt.key)
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err = store.List(ctx, "bogus")
	require.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestNewFileStore_RequiresRoot(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}
