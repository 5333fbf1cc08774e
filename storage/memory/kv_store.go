// Package memory provides in-memory storage implementations, used in
// tests and by hosts that do not need durability.
package memory

import (
	"context"
	"strings"
	"sync"

	"epack-comc-prices/storage"
)

// KeyValueStore is an in-memory implementation of storage.KeyValueStore.
type KeyValueStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewKeyValueStore creates a new in-memory key-value store.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{
		entries: make(map[string][]byte),
	}
}

// Get retrieves the value for key. Returns ErrNotFound if not exists.
func (s *KeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.entries[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Set stores value under key, replacing any existing value.
func (s *KeyValueStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *KeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Keys returns all stored keys beginning with prefix.
func (s *KeyValueStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

var _ storage.KeyValueStore = (*KeyValueStore)(nil)
