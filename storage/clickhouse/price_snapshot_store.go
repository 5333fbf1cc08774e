package clickhouse

import (
	"context"
	"fmt"

	"epack-comc-prices/domain"
	"epack-comc-prices/storage"
)

// PriceSnapshotStore implements storage.PriceSnapshotStore using ClickHouse.
type PriceSnapshotStore struct {
	conn *Conn
}

// NewPriceSnapshotStore creates a new PriceSnapshotStore.
func NewPriceSnapshotStore(conn *Conn) *PriceSnapshotStore {
	return &PriceSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)

// Insert appends a snapshot.
func (s *PriceSnapshotStore) Insert(ctx context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.Query == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_snapshots (
			query, price, quantity, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	var quantity *int32
	if snap.Quantity != nil {
		q := int32(*snap.Quantity)
		quantity = &q
	}

	if err := batch.Append(snap.Query, snap.Price, quantity, snap.ObservedAt); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByQuery retrieves all snapshots for a query, ordered by observation
// time ascending.
func (s *PriceSnapshotStore) GetByQuery(ctx context.Context, query string) ([]*domain.PriceSnapshot, error) {
	stmt := `
		SELECT query, price, quantity, observed_at
		FROM price_snapshots
		WHERE query = ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, stmt, query)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.PriceSnapshot
	for rows.Next() {
		var snap domain.PriceSnapshot
		var quantity *int32

		if err := rows.Scan(&snap.Query, &snap.Price, &quantity, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if quantity != nil {
			q := int(*quantity)
			snap.Quantity = &q
		}
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}
