// Package resolve matches on-page tiles to the authoritative trade
// record and assigns each card a side of the trade.
package resolve

import (
	"strings"

	"epack-comc-prices/domain"
)

// ResolutionKind tags how a tile's card identity was obtained.
type ResolutionKind int

const (
	// ResolutionUnresolved means no API record matched and no fallback
	// was possible. The tile is skipped, not errored.
	ResolutionUnresolved ResolutionKind = iota

	// ResolutionResolved means the tile's id matched an API card.
	ResolutionResolved

	// ResolutionFallback means the card was reconstructed from the
	// tile's visible text (edit/draft mode race: the card was added
	// after the record was fetched).
	ResolutionFallback
)

// Resolution is the tagged result of resolving one tile.
type Resolution struct {
	Kind ResolutionKind
	Card domain.Card
}

// Resolver resolves tiles against one trade record snapshot.
//
// The viewer's own role is inferred by elimination: the page only names
// the other party, so whichever trade username matches the partner
// (case-insensitively) fixes the viewer as the opposite role. When
// neither matches, the role is indeterminate and every card defaults to
// the other side — an unverified card is never labeled "mine".
type Resolver struct {
	lookup    map[string]domain.Card
	roleKnown bool
}

// NewResolver builds a resolver for one trade record and the known
// counterparty username. A nil trade yields a resolver that only ever
// falls back.
func NewResolver(trade *domain.TradeRecord, partnerUsername string) *Resolver {
	r := &Resolver{lookup: make(map[string]domain.Card)}
	if trade == nil {
		return r
	}

	partnerIsInitiator := partnerUsername != "" &&
		strings.EqualFold(trade.Initiator.UserName, partnerUsername)
	partnerIsCounterparty := partnerUsername != "" &&
		strings.EqualFold(trade.Counterparty.UserName, partnerUsername)

	viewerIsInitiator := partnerIsCounterparty
	viewerIsCounterparty := partnerIsInitiator
	r.roleKnown = viewerIsInitiator || viewerIsCounterparty

	initiatorSide := domain.SideTheirs
	if viewerIsInitiator {
		initiatorSide = domain.SideMine
	}
	counterpartySide := domain.SideTheirs
	if viewerIsCounterparty {
		counterpartySide = domain.SideMine
	}

	r.addCards(trade.InitiatorCards, initiatorSide)
	r.addCards(trade.CounterpartyCards, counterpartySide)
	return r
}

func (r *Resolver) addCards(cards []domain.Card, side domain.Side) {
	for _, c := range cards {
		if c.ID == "" {
			continue
		}
		c.Side = side
		r.lookup[c.ID] = c
	}
}

// RoleKnown reports whether the viewer's role could be inferred.
func (r *Resolver) RoleKnown() bool {
	return r.roleKnown
}

// Lookup returns the API card for an id, if any.
func (r *Resolver) Lookup(id string) (domain.Card, bool) {
	c, ok := r.lookup[id]
	return c, ok
}

// Resolve obtains the card behind a tile. The fallback path is only
// attempted in edit/draft mode, the one state where a tile can exist
// before the API has indexed its card.
func (r *Resolver) Resolve(tile domain.Tile, editMode bool) Resolution {
	if id := tile.ID(); id != "" {
		if card, ok := r.lookup[id]; ok {
			return Resolution{Kind: ResolutionResolved, Card: card}
		}
	}

	if !editMode {
		return Resolution{Kind: ResolutionUnresolved}
	}
	return r.resolveFromTile(tile)
}

// resolveFromTile reconstructs a card from the tile's visible text.
// Transferability cannot be read off a tile, so it is always false
// here, which can undercount transferable cards added mid-session.
func (r *Resolver) resolveFromTile(tile domain.Tile) Resolution {
	title := collapseSpace(tile.Title())
	details := collapseSpace(tile.Details())
	if title == "" || details == "" {
		return Resolution{Kind: ResolutionUnresolved}
	}

	insertName, number := splitDetails(details)

	return Resolution{
		Kind: ResolutionFallback,
		Card: domain.Card{
			ID:             tile.ID(),
			PlayerName:     title,
			InsertName:     insertName,
			CardNumber:     number,
			IsPhysical:     tile.PhysicalHint(),
			IsTransferable: false,
			Side:           domain.SideTheirs,
		},
	}
}

// splitDetails splits "InsertName, CardNumber" on the last comma;
// insert names may themselves contain commas.
func splitDetails(details string) (insertName, number string) {
	idx := strings.LastIndex(details, ",")
	if idx == -1 {
		return details, ""
	}
	return strings.TrimSpace(details[:idx]), strings.TrimSpace(details[idx+1:])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
