// Package sqlite provides the on-device record store backing cart and
// session persistence.
//
// The store is a single key/blob table: each logical record (the cart, the
// session marker) lives under one fixed key and is overwritten in place on
// every save. WAL mode is enabled on Open so a read (badge refresh) never
// blocks a concurrent write (cart save).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps cross-compiled and containerized builds simple.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    -- Fixed logical record name, e.g. "cart" or "user".
    key        TEXT PRIMARY KEY,

    -- Opaque serialized payload. The store never inspects it.
    body       BLOB NOT NULL,

    -- Wall-clock time of the last overwrite (RFC3339 TEXT, SQLite idiom).
    updated_at TEXT NOT NULL
);
`

// KV is a durable key-to-blob store over a local SQLite file.
type KV struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	store, err := sqlite.Open("./data/storefront.db")
func Open(path string) (*KV, error) {
	// _pragma query parameters configure per-connection state for the
	// modernc driver. busy_timeout waits for locks instead of failing.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &KV{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *KV) Close() error {
	return s.db.Close()
}

// Get returns the blob stored under key. The second return value reports
// whether the key exists; a missing key is not an error.
func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `SELECT body FROM records WHERE key = ?`

	var body []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return body, true, nil
}

// Put overwrites the blob under key, creating the record if needed.
func (s *KV) Put(ctx context.Context, key string, body []byte) error {
	const q = `
		INSERT INTO records (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q, key, body, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: put %q: %w", key, err)
	}
	return nil
}

// Delete removes the record under key. Deleting a missing key is a no-op.
func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %q: %w", key, err)
	}
	return nil
}
