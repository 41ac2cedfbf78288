// Package session persists the opaque login token that routing reads at
// startup. The cart core never depends on it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
)

// StorageKey is the fixed record name the session marker lives under.
const StorageKey = "user"

// BlobStore is the slice of the SQLite store the session repository needs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// Store reads and writes the single session record.
type Store struct {
	kv BlobStore
}

func NewStore(kv BlobStore) *Store {
	return &Store{kv: kv}
}

// Token returns the persisted session token. A missing or unreadable record
// reports ("", false, nil): no session.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	body, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return "", false, fmt.Errorf("session: load: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	var token string
	if err := json.Unmarshal(body, &token); err != nil || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// SaveToken overwrites the persisted session token.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	body, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, body); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Clear removes the session record (logout).
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
