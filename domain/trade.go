// Package domain defines the shared types for trade/price reconciliation.
package domain

import "time"

// Side is which party of the trade owns a card, from the viewer's
// perspective.
type Side string

const (
	// SideMine marks cards the viewer gives away.
	SideMine Side = "mine"

	// SideTheirs marks cards the viewer receives. This is also the
	// conservative default when the viewer's role cannot be determined.
	SideTheirs Side = "theirs"
)

// Party is one of the two accounts involved in a trade.
type Party struct {
	UserName  string
	LastLogin time.Time // zero when the API reports 0001-01-01T00:00:00
	Rating    int       // rating this party gave the other, 0-5, 0 = unrated
}

// TradeRecord is the authoritative snapshot of one trade as returned by
// the trading API. It is immutable once fetched; a refresh discards it
// and fetches a new one.
type TradeRecord struct {
	Initiator    Party
	Counterparty Party

	InitiatorCards    []Card
	CounterpartyCards []Card
}

// Card is one tradable card, merged from the API record and the side
// assignment derived during identity resolution.
type Card struct {
	ID         string // card template ID, matches the tile's id
	PlayerName string
	InsertName string
	CardNumber string

	IsPhysical     bool
	IsTransferable bool

	Side Side
}
