package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/factorytown/internal/log"
)

// PageModel is a row of the pages table.
type PageModel struct {
	Namespace string
	Key       string
	Body      []byte
	Size      int64
	UpdatedAt int64 // Unix timestamp
}

// PageStore keeps cached pages in the pages table, keyed by (namespace, key).
type PageStore struct {
	db *DB
}

func newPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

// Driver names the backend.
func (s *PageStore) Driver() string {
	return "sqlite"
}

// Get returns the page body. found is false when no row exists.
func (s *PageStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT body FROM pages WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read page %s/%s: %w", namespace, key, err)
	}
	return body, true, nil
}

// Put inserts or replaces a page.
func (s *PageStore) Put(ctx context.Context, namespace, key string, body []byte) error {
	m := PageModel{
		Namespace: namespace,
		Key:       key,
		Body:      body,
		Size:      int64(len(body)),
		UpdatedAt: time.Now().Unix(),
	}
	if m.Body == nil {
		m.Body = []byte{}
	}
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO pages (namespace, key, body, size, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET body = excluded.body, size = excluded.size, updated_at = excluded.updated_at`,
		m.Namespace, m.Key, m.Body, m.Size, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write page %s/%s: %w", namespace, key, err)
	}
	log.Debug(log.CatDB, "Stored page", "namespace", namespace, "key", key, "size", m.Size)
	return nil
}

// Delete removes a page. Deleting a missing page is not an error.
func (s *PageStore) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM pages WHERE namespace = ? AND key = ?`, namespace, key,
	); err != nil {
		return fmt.Errorf("failed to delete page %s/%s: %w", namespace, key, err)
	}
	return nil
}

// List returns the keys in namespace, sorted.
func (s *PageStore) List(ctx context.Context, namespace string) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT key FROM pages WHERE namespace = ? ORDER BY key`, namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan page key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return keys, nil
}

// Clear deletes every page in namespace and returns how many were removed.
func (s *PageStore) Clear(ctx context.Context, namespace string) (int, error) {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM pages WHERE namespace = ?`, namespace)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pages: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared pages: %w", err)
	}
	return int(n), nil
}

// Stat returns the stored row without its body.
func (s *PageStore) Stat(ctx context.Context, namespace, key string) (*PageModel, error) {
	m := &PageModel{Namespace: namespace, Key: key}
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT size, updated_at FROM pages WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&m.Size, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat page %s/%s: %w", namespace, key, err)
	}
	return m, nil
}

// Close closes the underlying database.
func (s *PageStore) Close() error {
	return s.db.Close()
}
