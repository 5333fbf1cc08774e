package domain

// Tile is an opaque handle to one on-page card. The core only reads
// identity from it; presentation updates flow back through the host's
// sink. Title and Details are consulted only on the fallback resolution
// path (edit/draft mode, card not yet indexed by the API).
type Tile interface {
	// ID returns the card template ID, or "" when the page does not
	// expose one.
	ID() string

	// Title returns the visible player name text.
	Title() string

	// Details returns the visible "InsertName, CardNumber" text.
	Details() string

	// PhysicalHint reports whether the tile is styled as a physical
	// card. Only consulted on the fallback path; the API record is
	// authoritative when present.
	PhysicalHint() bool
}

// TileUpdate is everything the host needs to render one tile's price
// state. The core never renders; it hands these to the sink.
type TileUpdate struct {
	DisplayText string
	Tooltip     string
	Link        string

	IsError bool

	// RawPrice is the unadjusted marketplace price backing DisplayText,
	// kept so fee-toggle recomputation never refetches. Nil when no
	// price resolved.
	RawPrice *float64

	Quantity *int

	IsPhysical     bool
	IsTransferable bool
}

// SideTotals aggregates resolved prices for one side of the trade.
// Invariant: PricedCount + MissingCount + DigitalCount == TotalCount.
type SideTotals struct {
	Sum          float64
	PricedCount  int
	MissingCount int
	DigitalCount int
	TotalCount   int
}
