// Package pipeline orchestrates the per-item price resolution flow:
// identity resolution, cache lookups, rate-limited marketplace fetches
// and totals aggregation. One Session carries all run state for one
// page view, so independent sessions never share mutable state.
package pipeline

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"epack-comc-prices/cache"
	"epack-comc-prices/domain"
	"epack-comc-prices/epack"
	"epack-comc-prices/observability"
	"epack-comc-prices/query"
	"epack-comc-prices/resolve"
	"epack-comc-prices/storage"
	"epack-comc-prices/totals"
)

// ErrRunInProgress is returned when Run or Refresh is called while a
// run is still executing. Runs are strictly sequential.
var ErrRunInProgress = errors.New("fetch run already in progress")

// State is the pipeline run state machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// SearchClient is the marketplace capability the pipeline fetches
// through.
type SearchClient interface {
	// Search fetches the first results page for a query.
	Search(ctx context.Context, q string) (string, error)

	// SearchURL returns the results-page URL, used as the payload link
	// when no listing is selected.
	SearchURL(q string) string
}

// Sink receives presentation updates. The core never renders; it
// reports per-tile state and side totals through this interface.
type Sink interface {
	ApplyTileUpdate(tile domain.Tile, update domain.TileUpdate)
	ApplySideTotals(side domain.Side, t domain.SideTotals)

	// Reset discards all presentation state, called on refresh.
	Reset()
}

// Default pacing values, matching the rate the marketplace tolerates.
// The delay follows every marketplace fetch; cache hits and skips are
// never delayed.
const (
	DefaultBaseDelay = time.Second
	DefaultJitterMax = 500 * time.Millisecond
)

// Options configures a Session. TradeSource, Marketplace, Cache and
// Sink are required; everything else has a usable default.
type Options struct {
	TradeID     string
	TradeSource epack.TradeSource
	Partner     resolve.PartnerUsernameProvider
	Marketplace SearchClient
	Cache       *cache.Store
	Sink        Sink

	Normalizer *query.Normalizer

	// FeePreference persists the fee toggle. Optional; without it the
	// toggle still works but does not survive the session.
	FeePreference *totals.FeePreference

	// Snapshots, when set, records every freshly fetched price.
	Snapshots storage.PriceSnapshotStore

	Metrics *observability.Metrics
	Logger  *log.Logger

	// Status receives short progress strings for the host's status
	// line ("(3/12) Jane Doe…").
	Status func(string)

	// Limiter bounds the marketplace request rate. Defaults to one
	// request per second.
	Limiter *rate.Limiter

	BaseDelay time.Duration
	JitterMax time.Duration

	// Sleep, Clock and Jitter are injectable for deterministic tests.
	Sleep  func(context.Context, time.Duration) error
	Clock  func() time.Time
	Jitter func() float64 // uniform [0,1)
}

// tileEntry is the per-tile record of one run, kept so fee toggles and
// totals recomputation never refetch.
type tileEntry struct {
	tile      domain.Tile
	state     totals.TileState
	update    domain.TileUpdate
	hasUpdate bool
}

// Session is one page view's pipeline instance.
type Session struct {
	opts       Options
	aggregator *totals.Aggregator
	logger     *log.Logger

	mu      sync.Mutex
	state   State
	running bool

	abortMu sync.Mutex
	abort   bool

	// trade is the memoized structured record, fetched once per page
	// view and discarded only on refresh.
	trade      *domain.TradeRecord
	tradeTried bool

	entries []*tileEntry
}

// NewSession creates a session. The fee preference is read once here;
// toggling later goes through SetIncludeFee.
func NewSession(ctx context.Context, opts Options) *Session {
	if opts.Normalizer == nil {
		opts.Normalizer = query.NewNormalizer(nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(1), 1)
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.JitterMax == 0 {
		opts.JitterMax = DefaultJitterMax
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Jitter == nil {
		opts.Jitter = rand.Float64
	}

	includeFee := true
	if opts.FeePreference != nil {
		includeFee = opts.FeePreference.IncludeFee(ctx)
	}

	return &Session{
		opts:       opts,
		aggregator: totals.NewAggregator(includeFee),
		logger:     opts.Logger,
		state:      StateIdle,
	}
}

// State returns the current run state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Abort requests cooperative cancellation. The flag is observed at the
// top of each per-item iteration; an in-flight fetch for the current
// item is allowed to complete first.
func (s *Session) Abort() {
	s.abortMu.Lock()
	s.abort = true
	s.abortMu.Unlock()
	s.status("Aborting…")
}

func (s *Session) aborted() bool {
	s.abortMu.Lock()
	defer s.abortMu.Unlock()
	return s.abort
}

func (s *Session) clearAbort() {
	s.abortMu.Lock()
	s.abort = false
	s.abortMu.Unlock()
}

func (s *Session) status(msg string) {
	if s.opts.Status != nil {
		s.opts.Status(msg)
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// tradeRecord returns the memoized structured record, fetching it on
// first use. A fetch failure is non-fatal: resolution degrades to the
// fallback path and is retried on the next run.
func (s *Session) tradeRecord(ctx context.Context) *domain.TradeRecord {
	if s.trade != nil {
		return s.trade
	}
	if s.tradeTried {
		return nil
	}
	s.tradeTried = true

	if s.opts.TradeID == "" {
		s.logger.Printf("no trade id; skipping trade record fetch")
		return nil
	}

	trade, err := s.opts.TradeSource.FetchTrade(ctx, s.opts.TradeID)
	if err != nil {
		s.logger.Printf("fetch trade %s: %v", s.opts.TradeID, err)
		return nil
	}
	s.trade = trade
	return trade
}

// invalidateTrade discards the memoized record so the next run
// refetches it.
func (s *Session) invalidateTrade() {
	s.trade = nil
	s.tradeTried = false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
