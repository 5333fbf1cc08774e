package pipeline

import (
	"context"
	"fmt"
	"time"

	"epack-comc-prices/comc"
	"epack-comc-prices/domain"
	"epack-comc-prices/query"
	"epack-comc-prices/resolve"
	"epack-comc-prices/totals"
)

// Chip text formats shown on tiles.
const (
	chipPriced   = "COMC: $%.2f"
	chipNoPrice  = "COMC: —"
	chipDigital  = "COMC: N/A (Digital)"
	chipError    = "COMC: n/a"
	chipPending  = "COMC: …"
	digitalBadge = " 💿"

	nonTransferableNote = "Non-Transferable Physical Card"
)

// Run processes the given tiles sequentially: resolve, normalize, check
// the cache, fetch on a miss, report per-tile updates through the sink
// and finish with both side totals. Returns ErrRunInProgress if a run
// is already executing. Individual item failures never abort the run.
func (s *Session) Run(ctx context.Context, tiles []domain.Tile, editMode bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.running = true
	s.state = StateRunning
	s.entries = nil
	s.mu.Unlock()
	s.clearAbort()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	trade := s.tradeRecord(ctx)
	partner := ""
	if s.opts.Partner != nil {
		partner = resolve.AwaitPartnerUsername(ctx, s.opts.Partner, s.opts.Sleep)
	}
	resolver := resolve.NewResolver(trade, partner)

	aborted := false
	for i, tile := range tiles {
		if s.aborted() || ctx.Err() != nil {
			aborted = true
			break
		}
		s.processTile(ctx, tile, resolver, editMode, i+1, len(tiles))
	}

	s.finish(aborted)
	return nil
}

// processTile handles one tile end to end and records its entry for
// later totals and fee-toggle recomputation.
func (s *Session) processTile(ctx context.Context, tile domain.Tile, resolver *resolve.Resolver, editMode bool, index, total int) {
	res := resolver.Resolve(tile, editMode)
	if res.Kind == resolve.ResolutionUnresolved {
		// Counted as missing on the other side so totals still cover it.
		s.skip("unresolved")
		s.record(tile, totals.TileState{Side: domain.SideTheirs}, domain.TileUpdate{}, false)
		return
	}
	card := res.Card

	if !card.IsPhysical {
		s.skip("digital")
		update := domain.TileUpdate{
			DisplayText:    chipDigital + digitalBadge,
			IsPhysical:     false,
			IsTransferable: card.IsTransferable,
		}
		s.apply(tile, update)
		s.record(tile, totals.TileState{Side: card.Side, IsDigital: true}, update, true)
		return
	}

	q := s.opts.Normalizer.Build(query.Input{
		PlayerName: card.PlayerName,
		InsertName: card.InsertName,
		Number:     card.CardNumber,
	})
	if q == "" {
		s.skip("no_query")
		s.record(tile, totals.TileState{Side: card.Side}, domain.TileUpdate{}, false)
		return
	}

	s.status(fmt.Sprintf("(%d/%d) %s…", index, total, card.PlayerName))
	s.apply(tile, domain.TileUpdate{DisplayText: chipPending})

	if payload := s.opts.Cache.Get(ctx, q); payload != nil {
		if s.opts.Metrics != nil {
			s.opts.Metrics.CacheHits.Inc()
		}
		update := s.payloadUpdate(payload, card)
		s.apply(tile, update)
		s.record(tile, totals.TileState{Side: card.Side, RawPrice: payload.Price}, update, true)
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.CacheMisses.Inc()
	}

	payload, err := s.fetchQuote(ctx, q)
	if err != nil {
		s.logger.Printf("search %q: %v", q, err)
		update := domain.TileUpdate{
			DisplayText:    chipError,
			Tooltip:        fmt.Sprintf("Lookup failed: %v", err),
			IsError:        true,
			IsPhysical:     card.IsPhysical,
			IsTransferable: card.IsTransferable,
		}
		s.apply(tile, update)
		s.record(tile, totals.TileState{Side: card.Side}, update, true)
		s.postFetchDelay(ctx)
		return
	}

	s.opts.Cache.Set(ctx, q, payload)
	s.snapshot(ctx, q, payload)

	update := s.payloadUpdate(payload, card)
	s.apply(tile, update)
	s.record(tile, totals.TileState{Side: card.Side, RawPrice: payload.Price}, update, true)
	s.postFetchDelay(ctx)
}

// fetchQuote performs one rate-limited marketplace fetch and distills
// the page into a cacheable payload.
func (s *Session) fetchQuote(ctx context.Context, q string) (*domain.CachePayload, error) {
	if err := s.opts.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := s.opts.Clock()
	markup, err := s.opts.Marketplace.Search(ctx, q)
	if s.opts.Metrics != nil {
		s.opts.Metrics.SearchLatency.Observe(s.opts.Clock().Sub(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.opts.Metrics.SearchesTotal.WithLabelValues(result).Inc()
	}
	if err != nil {
		return nil, err
	}

	parsed, err := comc.ParseSearch(markup)
	if err != nil {
		// A page that fails to parse is treated as zero listings.
		s.logger.Printf("parse results for %q: %v", q, err)
		if s.opts.Metrics != nil {
			s.opts.Metrics.ParseFailures.Inc()
		}
		parsed = &comc.SearchResult{}
	}

	searchURL := s.opts.Marketplace.SearchURL(q)

	listing := comc.SelectListing(parsed.Listings)
	if listing == nil {
		return &domain.CachePayload{
			Link:    searchURL,
			Tooltip: listingsTooltip(parsed.Counts),
		}, nil
	}

	link := listing.Link
	if link == "" {
		link = searchURL
	}
	tooltip := listingsTooltip(parsed.Counts)
	if listing.Quantity != nil {
		tooltip = fmt.Sprintf("%d available on COMC", *listing.Quantity)
	}

	price := listing.Price
	return &domain.CachePayload{
		Price:    &price,
		Link:     link,
		Tooltip:  tooltip,
		Quantity: listing.Quantity,
	}, nil
}

func listingsTooltip(c domain.ListingCounts) string {
	return fmt.Sprintf("Search results: %d listings", c.NonAuctionTotal+c.AuctionTotal)
}

// payloadUpdate renders a cached or fresh payload for one card, applying
// the current fee preference and the card's physical markers.
func (s *Session) payloadUpdate(payload *domain.CachePayload, card domain.Card) domain.TileUpdate {
	update := domain.TileUpdate{
		Link:           payload.Link,
		Tooltip:        payload.Tooltip,
		RawPrice:       payload.Price,
		Quantity:       payload.Quantity,
		IsPhysical:     card.IsPhysical,
		IsTransferable: card.IsTransferable,
	}

	if payload.Price != nil {
		update.DisplayText = fmt.Sprintf(chipPriced, s.aggregator.DisplayPrice(*payload.Price))
	} else {
		update.DisplayText = chipNoPrice
	}
	if !card.IsTransferable {
		if update.Tooltip != "" {
			update.Tooltip = nonTransferableNote + "\n" + update.Tooltip
		} else {
			update.Tooltip = nonTransferableNote
		}
	}
	return update
}

func (s *Session) postFetchDelay(ctx context.Context) {
	jitter := time.Duration(s.opts.Jitter() * float64(s.opts.JitterMax))
	_ = s.opts.Sleep(ctx, s.opts.BaseDelay+jitter)
}

func (s *Session) skip(reason string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ItemsSkipped.WithLabelValues(reason).Inc()
	}
}

func (s *Session) apply(tile domain.Tile, update domain.TileUpdate) {
	s.opts.Sink.ApplyTileUpdate(tile, update)
}

func (s *Session) record(tile domain.Tile, state totals.TileState, update domain.TileUpdate, hasUpdate bool) {
	s.mu.Lock()
	s.entries = append(s.entries, &tileEntry{
		tile:      tile,
		state:     state,
		update:    update,
		hasUpdate: hasUpdate,
	})
	s.mu.Unlock()
}

// finish sets the terminal state and publishes both side totals. Totals
// are published even after an abort so the host reflects everything
// processed so far.
func (s *Session) finish(aborted bool) {
	if aborted {
		s.setState(StateAborted)
		s.status("Aborted")
		if s.opts.Metrics != nil {
			s.opts.Metrics.RunsTotal.WithLabelValues("aborted").Inc()
		}
	} else {
		s.setState(StateCompleted)
		s.status("Done")
		if s.opts.Metrics != nil {
			s.opts.Metrics.RunsTotal.WithLabelValues("completed").Inc()
		}
	}
	s.RecomputeTotals()
}

// RecomputeTotals publishes both side totals from the recorded entries.
func (s *Session) RecomputeTotals() {
	s.mu.Lock()
	states := make([]totals.TileState, 0, len(s.entries))
	for _, e := range s.entries {
		states = append(states, e.state)
	}
	s.mu.Unlock()

	mine, theirs := s.aggregator.Compute(states)
	s.opts.Sink.ApplySideTotals(domain.SideMine, mine)
	s.opts.Sink.ApplySideTotals(domain.SideTheirs, theirs)
}

// SetIncludeFee persists the fee preference, re-renders every priced
// tile from its recorded raw price and republishes totals. No network
// traffic: display prices are derived from state already in hand.
func (s *Session) SetIncludeFee(ctx context.Context, includeFee bool) error {
	if s.opts.FeePreference != nil {
		if err := s.opts.FeePreference.SetIncludeFee(ctx, includeFee); err != nil {
			return err
		}
	}
	s.aggregator.SetIncludeFee(includeFee)

	s.mu.Lock()
	entries := make([]*tileEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	for _, e := range entries {
		if !e.hasUpdate || e.update.RawPrice == nil {
			continue
		}
		update := e.update
		update.DisplayText = fmt.Sprintf(chipPriced, s.aggregator.DisplayPrice(*update.RawPrice))
		e.update = update
		s.apply(e.tile, update)
	}

	s.RecomputeTotals()
	return nil
}

// IncludeFee reports the session's current fee preference.
func (s *Session) IncludeFee() bool {
	return s.aggregator.IncludeFee()
}

// Refresh clears presentation state, purges the quote cache and the
// memoized trade record, then reruns against the given tiles.
func (s *Session) Refresh(ctx context.Context, tiles []domain.Tile, editMode bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.mu.Unlock()

	s.opts.Sink.Reset()
	if err := s.opts.Cache.Clear(ctx); err != nil {
		s.logger.Printf("cache clear: %v", err)
	}
	s.invalidateTrade()

	return s.Run(ctx, tiles, editMode)
}

// snapshot records a freshly fetched price when a snapshot store is
// configured. Failures are logged; price history is best effort.
func (s *Session) snapshot(ctx context.Context, q string, payload *domain.CachePayload) {
	if s.opts.Snapshots == nil {
		return
	}
	err := s.opts.Snapshots.Insert(ctx, &domain.PriceSnapshot{
		Query:      q,
		Price:      payload.Price,
		Quantity:   payload.Quantity,
		ObservedAt: s.opts.Clock(),
	})
	if err != nil {
		s.logger.Printf("price snapshot for %q: %v", q, err)
	}
}
