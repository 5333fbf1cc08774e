package postgres

import (
	"context"
	"fmt"

	"epack-comc-prices/storage"
)

// KeyValueStore implements storage.KeyValueStore using PostgreSQL.
type KeyValueStore struct {
	pool *Pool
}

// NewKeyValueStore creates a new KeyValueStore.
func NewKeyValueStore(pool *Pool) *KeyValueStore {
	return &KeyValueStore{pool: pool}
}

// Compile-time interface check.
var _ storage.KeyValueStore = (*KeyValueStore)(nil)

// Get retrieves the value for key. Returns ErrNotFound if not exists.
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE key = $1
	`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get kv entry: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any existing value.
func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set kv entry: %w", err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE key = $1`

	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}

// Keys returns all stored keys beginning with prefix.
func (s *KeyValueStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := `
		SELECT key
		FROM kv_entries
		WHERE key LIKE $1 || '%'
		ORDER BY key
	`

	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list kv keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan kv key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv keys: %w", err)
	}
	return keys, nil
}
