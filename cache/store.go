// Package cache persists per-query marketplace results with a TTL.
// Caching is an optimization, never a correctness requirement: reads
// fail open to a miss and write failures are swallowed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"epack-comc-prices/domain"
	"epack-comc-prices/storage"
)

const (
	// Namespace prefixes every cache key.
	Namespace = "comc"

	// Version is a static build tag baked into every key. Bumping it
	// orphans all prior entries without a migration; they are ignored
	// until Clear removes them.
	Version = "v10"

	// DefaultTTL is applied at write time, per entry, so changing it
	// later does not retroactively alter already-written expiries.
	DefaultTTL = 3 * time.Hour
)

// entry is the stored wire form of one cached result.
type entry struct {
	TS   int64               `json:"ts"`  // write time, unix milliseconds
	TTL  int64               `json:"ttl"` // milliseconds
	Data domain.CachePayload `json:"data"`
}

// Store is a TTL cache keyed by normalized query.
type Store struct {
	kv     storage.KeyValueStore
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the per-entry TTL.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithClock sets a custom clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for degraded-cache warnings.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a cache over the given key-value capability.
func NewStore(kv storage.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key for a query. Value-equal queries must be
// cache-key-equal, so the query is lowercased.
func Key(query string) string {
	return Namespace + ":" + Version + ":" + strings.ToLower(query)
}

// Get returns the cached payload for query, or nil on a miss. Stale
// entries are treated as absent and purged. Read and decode errors
// degrade to a miss.
func (s *Store) Get(ctx context.Context, query string) *domain.CachePayload {
	raw, err := s.kv.Get(ctx, Key(query))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("cache read error for %q: %v", query, err)
		}
		return nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Printf("cache decode error for %q: %v", query, err)
		return nil
	}

	ttl := e.TTL
	if ttl == 0 {
		ttl = DefaultTTL.Milliseconds()
	}
	if s.now().UnixMilli()-e.TS > ttl {
		// Lazy purge; a failed delete just means another stale read later.
		_ = s.kv.Delete(ctx, Key(query))
		return nil
	}

	data := e.Data
	return &data
}

// Set stores payload under query with the store's TTL. Write failures
// are logged and swallowed.
func (s *Store) Set(ctx context.Context, query string, payload *domain.CachePayload) {
	if payload == nil {
		return
	}

	raw, err := json.Marshal(entry{
		TS:   s.now().UnixMilli(),
		TTL:  s.ttl.Milliseconds(),
		Data: *payload,
	})
	if err != nil {
		s.logger.Printf("cache encode error for %q: %v", query, err)
		return
	}

	if err := s.kv.Set(ctx, Key(query), raw); err != nil {
		s.logger.Printf("cache write error for %q: %v", query, err)
	}
}

// Clear removes every entry in the current version namespace.
func (s *Store) Clear(ctx context.Context) error {
	prefix := Namespace + ":" + Version + ":"
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
