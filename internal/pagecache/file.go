package pagecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/factorytown/internal/log"
)

// FileStore keeps each page in its own file at <root>/<namespace>/<key>.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at root, creating the directory.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file store root required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory the store writes under.
func (s *FileStore) Root() string { return s.root }

// Driver names the backend.
func (s *FileStore) Driver() string { return DriverFile }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(ns, key string) (string, error) {
	if err := checkEntry(ns, key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, ns, key), nil
}

// Get reads <root>/<ns>/<key>.
func (s *FileStore) Get(_ context.Context, ns, key string) ([]byte, bool, error) {
	p, err := s.path(ns, key)
	if err != nil {
		return nil, false, err
	}
	body, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", p, err)
	}
	return body, true, nil
}

// Put writes body through a temp file and rename so readers never see a
// partial page.
func (s *FileStore) Put(_ context.Context, ns, key string, body []byte) error {
	p, err := s.path(ns, key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("renaming into %s: %w", p, err)
	}
	log.Debug(log.CatCache, "Wrote page file", "path", p, "size", len(body))
	return nil
}

// Delete removes <root>/<ns>/<key>.
func (s *FileStore) Delete(_ context.Context, ns, key string) error {
	p, err := s.path(ns, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

// List returns the page files in the namespace directory.
func (s *FileStore) List(_ context.Context, ns string) ([]string, error) {
	if err := CheckNamespace(ns); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, ns))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", ns, err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every page file in the namespace.
func (s *FileStore) Clear(ctx context.Context, ns string) (int, error) {
	keys, err := s.List(ctx, ns)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := s.Delete(ctx, ns, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
