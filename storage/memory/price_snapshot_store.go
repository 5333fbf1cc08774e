package memory

import (
	"context"
	"sort"
	"sync"

	"epack-comc-prices/domain"
	"epack-comc-prices/storage"
)

// PriceSnapshotStore is an in-memory implementation of
// storage.PriceSnapshotStore.
type PriceSnapshotStore struct {
	mu      sync.RWMutex
	byQuery map[string][]*domain.PriceSnapshot
}

// NewPriceSnapshotStore creates a new in-memory price snapshot store.
func NewPriceSnapshotStore() *PriceSnapshotStore {
	return &PriceSnapshotStore{
		byQuery: make(map[string][]*domain.PriceSnapshot),
	}
}

// Insert appends a snapshot.
func (s *PriceSnapshotStore) Insert(_ context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.Query == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	s.byQuery[snap.Query] = append(s.byQuery[snap.Query], &cp)
	return nil
}

// GetByQuery retrieves all snapshots for a query, ordered by observation
// time ascending.
func (s *PriceSnapshotStore) GetByQuery(_ context.Context, query string) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.byQuery[query]
	out := make([]*domain.PriceSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		cp := *snap
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ObservedAt.Before(out[j].ObservedAt)
	})
	return out, nil
}

var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)
