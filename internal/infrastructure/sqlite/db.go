// Package sqlite stores cached wiki pages in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/factorytown/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeout is how long a writer waits on a locked database.
const busyTimeout = 5 * time.Second

// DB wraps a SQLite connection with its schema applied.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path, enables WAL mode and
// foreign keys, and applies pending migrations. An existing database file is
// copied to path+".bak" before migrating.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	if err := backup(path); err != nil {
		return nil, fmt.Errorf("backing up database: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds(),
	)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := migrateUp(context.Background(), conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Debug(log.CatDB, "Opened database", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// PageStore returns the page store backed by this database. Closing the
// store closes the database.
func (d *DB) PageStore() *PageStore {
	return newPageStore(d)
}

func backup(path string) error {
	src, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// migrateUp applies every embedded migration newer than the recorded schema
// version, each in its own transaction.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current uint
	if err := conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	version, err := src.First()
	for err == nil {
		if version > current {
			if err := applyMigration(ctx, conn, src.ReadUp, version); err != nil {
				return err
			}
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func applyMigration(
	ctx context.Context,
	conn *sql.DB,
	readUp func(uint) (io.ReadCloser, string, error),
	version uint,
) error {
	r, identifier, err := readUp(version)
	if err != nil {
		return fmt.Errorf("reading migration %d: %w", version, err)
	}
	body, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return fmt.Errorf("reading migration %d: %w", version, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("applying migration %d (%s): %w", version, identifier, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, time.Now().Unix(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.CatDB, "Applied migration", "version", version, "name", identifier)
	return nil
}
