// Package storage defines the persistence capabilities the library
// depends on. Hosts may supply any implementation; memory, postgres and
// clickhouse implementations live in subpackages.
package storage

import (
	"context"

	"epack-comc-prices/domain"
)

// KeyValueStore is a generic persistent key-value capability. The quote
// cache and the fee preference are built on it.
type KeyValueStore interface {
	// Get retrieves the value for key. Returns ErrNotFound if the key
	// does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys beginning with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// PriceSnapshotStore records observed marketplace prices over time.
type PriceSnapshotStore interface {
	// Insert appends a snapshot.
	Insert(ctx context.Context, s *domain.PriceSnapshot) error

	// GetByQuery retrieves all snapshots for a normalized query,
	// ordered by observation time ascending.
	GetByQuery(ctx context.Context, query string) ([]*domain.PriceSnapshot, error)
}
