package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/watcher"
)

func startWatcher(t *testing.T, cfg watcher.Config) <-chan struct{} {
	t.Helper()
	w, err := watcher.New(cfg)
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_CreatesNamespaceDirs(t *testing.T) {
	root := t.TempDir()
	startWatcher(t, watcher.Config{Root: root, Namespaces: pagecache.Namespaces, DebounceDur: 50 * time.Millisecond})

	for _, ns := range pagecache.Namespaces {
		info, err := os.Stat(filepath.Join(root, ns))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	root := t.TempDir()
	onChange := startWatcher(t, watcher.Config{
		Root:        root,
		Namespaces:  pagecache.Namespaces,
		DebounceDur: 50 * time.Millisecond,
	})

	page := filepath.Join(root, pagecache.NamespaceMD, "Buildings")
	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		err := os.WriteFile(page, []byte(fmt.Sprintf("{| %d |}", i)), 0o644)
		require.NoError(t, err, "failed to write file")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresTempFiles(t *testing.T) {
	root := t.TempDir()
	onChange := startWatcher(t, watcher.Config{
		Root:        root,
		Namespaces:  pagecache.Namespaces,
		DebounceDur: 50 * time.Millisecond,
	})

	err := os.WriteFile(filepath.Join(root, pagecache.NamespaceHTTP, ".tmp-123"), []byte("partial"), 0o644)
	require.NoError(t, err)

	select {
	case <-onChange:
		t.Fatal("should not notify for temp files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherDirectories(t *testing.T) {
	root := t.TempDir()
	onChange := startWatcher(t, watcher.Config{
		Root:        root,
		Namespaces:  []string{pagecache.NamespaceMD},
		DebounceDur: 50 * time.Millisecond,
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for files outside namespace dirs")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_PublishesChangedKeys(t *testing.T) {
	root := t.TempDir()
	broker := pubsub.NewBroker[watcher.Change]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	startWatcher(t, watcher.Config{
		Root:        root,
		Namespaces:  pagecache.Namespaces,
		DebounceDur: 50 * time.Millisecond,
		Publisher:   broker,
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, pagecache.NamespaceMD, "Coins"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, pagecache.NamespaceMD, "Buildings"), []byte("b"), 0o644))

	select {
	case ev := <-events:
		require.Equal(t, pubsub.CacheChangedEvent, ev.Type)
		require.Equal(t, []string{"Buildings", "Coins"}, ev.Payload.Keys[pagecache.NamespaceMD])
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected cache changed event")
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(t.TempDir()))
	require.NoError(t, err, "failed to create watcher")

	_, err = w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Stop should not hang or panic
	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/test/cache")

	assert.Equal(t, "/test/cache", cfg.Root)
	assert.Equal(t, pagecache.Namespaces, cfg.Namespaces)
	assert.Equal(t, 1*time.Second, cfg.DebounceDur)
}
