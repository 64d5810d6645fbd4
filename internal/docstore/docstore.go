// Package docstore provides a SQLite-backed JSON document store. Exam papers,
// answer-sheet marks, and attendance records are persisted as JSON documents
// keyed by (collection, key), so they survive server restarts without an
// external database.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("docstore: document not found")

// Store persists and retrieves JSON documents keyed by collection and key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put upserts the document under (collection, key). The document is
	// marshalled to JSON before storage.
	Put(ctx context.Context, collection, key string, doc any) error
	// Get unmarshals the document stored under (collection, key) into out.
	// Returns ErrNotFound when no such document exists.
	Get(ctx context.Context, collection, key string, out any) error
	// Keys returns all keys in the collection in ascending order.
	Keys(ctx context.Context, collection string) ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the document database.
// It resolves to ~/.shiksha/documents.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("docstore: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".shiksha")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("docstore: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "documents.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT    NOT NULL,
    key         TEXT    NOT NULL,
    body        TEXT    NOT NULL,  -- JSON
    updated_at  INTEGER NOT NULL,  -- Unix timestamp (seconds)
    PRIMARY KEY (collection, key)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// Put upserts the document under (collection, key).
func (s *SQLiteStore) Put(ctx context.Context, collection, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, key, err)
	}
	const q = `
INSERT INTO documents (collection, key, body, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (collection, key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, collection, key, string(body), time.Now().Unix()); err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", collection, key, err)
	}
	return nil
}

// Get unmarshals the document stored under (collection, key) into out.
func (s *SQLiteStore) Get(ctx context.Context, collection, key string, out any) error {
	const q = `SELECT body FROM documents WHERE collection = ? AND key = ?`
	var body string
	err := s.db.QueryRowContext(ctx, q, collection, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("docstore: get %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, key, err)
	}
	return nil
}

// Keys returns all keys in the collection in ascending order.
func (s *SQLiteStore) Keys(ctx context.Context, collection string) ([]string, error) {
	const q = `SELECT key FROM documents WHERE collection = ? ORDER BY key ASC`
	rows, err := s.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, fmt.Errorf("docstore: keys %s: %w", collection, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("docstore: keys scan: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: keys rows: %w", err)
	}
	return keys, nil
}

// Ping verifies the database connection is still usable. Used by the
// server's readiness probe.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("docstore: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("docstore: close: %w", err)
	}
	return nil
}
