// Package pagecache stores fetched wiki pages by namespace and key.
//
// Two namespaces exist: raw HTTP bodies live under "http" and wikitext
// extracted from them under "md". Backends are a plain directory tree, a
// SQLite database, or an S3 bucket; Open picks one from configuration and
// fronts it with an in-process read-through layer.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Cache namespaces.
const (
	NamespaceHTTP = "http"
	NamespaceMD   = "md"
)

// Driver names.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// Namespaces lists every namespace in a stable order.
var Namespaces = []string{NamespaceHTTP, NamespaceMD}

var (
	// ErrUnknownNamespace is returned for a namespace other than http or md.
	ErrUnknownNamespace = errors.New("unknown cache namespace")
	// ErrInvalidKey is returned for keys that are empty or would escape their namespace.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store is a namespaced byte store.
type Store interface {
	// Get returns the stored body. found is false when nothing is stored.
	Get(ctx context.Context, namespace, key string) (body []byte, found bool, err error)
	// Put stores body, replacing any previous value.
	Put(ctx context.Context, namespace, key string, body []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// List returns the keys in namespace, sorted.
	List(ctx context.Context, namespace string) ([]string, error)
	// Clear removes every key in namespace and reports how many were removed.
	Clear(ctx context.Context, namespace string) (int, error)
	// Driver names the backend.
	Driver() string
	Close() error
}

// CheckNamespace returns ErrUnknownNamespace unless ns is http or md.
func CheckNamespace(ns string) error {
	if !slices.Contains(Namespaces, ns) {
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
	}
	return nil
}

func checkKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case key == "." || strings.Contains(key, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidKey, key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}

func checkEntry(ns, key string) error {
	if err := CheckNamespace(ns); err != nil {
		return err
	}
	return checkKey(key)
}
