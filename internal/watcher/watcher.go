// Package watcher provides debounced file system watching for the file page cache.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/pubsub"
)

// Change lists the cache keys touched during one debounce window.
type Change struct {
	Keys map[string][]string // namespace -> sorted keys
}

// Watcher monitors the namespace directories of a file cache and signals
// once per burst of changes.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	namespaces []string
	debounce   time.Duration
	events     pubsub.Publisher[Change]
	onChange   chan struct{}
	done       chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	Namespaces  []string
	DebounceDur time.Duration
	// Publisher, when set, receives a CacheChangedEvent per notification.
	Publisher pubsub.Publisher[Change]
}

// DefaultConfig watches every cache namespace under root.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		Namespaces:  pagecache.Namespaces,
		DebounceDur: 1 * time.Second,
	}
}

// New creates a new cache watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:  fsw,
		root:       cfg.Root,
		namespaces: cfg.Namespaces,
		debounce:   cfg.DebounceDur,
		events:     cfg.Publisher,
		onChange:   make(chan struct{}, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching the namespace directories, creating missing ones.
// Returns a channel that receives a signal when cached pages change.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, ns := range w.namespaces {
		dir := filepath.Join(w.root, ns)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	log.Debug(log.CatWatcher, "Watching cache", "root", w.root, "namespaces", strings.Join(w.namespaces, ","))

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]map[string]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			ns, key, relevant := w.classify(event)
			if !relevant {
				continue
			}
			if pending[ns] == nil {
				pending[ns] = make(map[string]struct{})
			}
			pending[ns][key] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) > 0 {
				w.notify(pending)
				pending = make(map[string]map[string]struct{})
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err, "root", w.root)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) notify(pending map[string]map[string]struct{}) {
	change := Change{Keys: make(map[string][]string, len(pending))}
	total := 0
	for ns, keys := range pending {
		list := make([]string, 0, len(keys))
		for k := range keys {
			list = append(list, k)
		}
		sort.Strings(list)
		change.Keys[ns] = list
		total += len(list)
	}
	log.Info(log.CatWatcher, "Cache changed", "keys", total)

	if w.events != nil {
		w.events.Publish(pubsub.CacheChangedEvent, change)
	}
	// Non-blocking send - drop if channel full
	select {
	case w.onChange <- struct{}{}:
	default:
	}
}

// classify maps an event to its namespace and key. Temp files written by
// the file store, and directory-level noise, are not relevant.
func (w *Watcher) classify(event fsnotify.Event) (ns, key string, relevant bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", "", false
	}
	key = filepath.Base(event.Name)
	if strings.HasPrefix(key, ".") {
		return "", "", false
	}
	ns = filepath.Base(filepath.Dir(event.Name))
	for _, want := range w.namespaces {
		if ns == want {
			return ns, key, true
		}
	}
	return "", "", false
}
