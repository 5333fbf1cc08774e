// Package totals aggregates resolved prices per side of the trade and
// applies the COMC fee preference to displayed prices.
package totals

import (
	"epack-comc-prices/domain"
)

// COMCFee is the per-card fee COMC charges on top of the listed price.
const COMCFee = 0.25

// TileState is the slice of one tile's run state that aggregation
// needs. RawPrice is the unadjusted resolved price, nil when none.
type TileState struct {
	Side      domain.Side
	IsDigital bool
	RawPrice  *float64
}

// Aggregator computes side totals. Sums use display prices, so the fee
// preference changes what the host shows without refetching anything.
type Aggregator struct {
	fee        float64
	includeFee bool
}

// NewAggregator creates an aggregator. includeFee selects whether
// display prices keep the COMC fee (true) or have it deducted.
func NewAggregator(includeFee bool) *Aggregator {
	return &Aggregator{fee: COMCFee, includeFee: includeFee}
}

// SetIncludeFee flips the fee preference for subsequent computations.
func (a *Aggregator) SetIncludeFee(includeFee bool) {
	a.includeFee = includeFee
}

// IncludeFee reports the current fee preference.
func (a *Aggregator) IncludeFee() bool {
	return a.includeFee
}

// DisplayPrice adjusts a raw price per the fee preference. Prices never
// go negative.
func (a *Aggregator) DisplayPrice(raw float64) float64 {
	if a.includeFee {
		return raw
	}
	adjusted := raw - a.fee
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

// ComputeSide aggregates one side's tiles. A tile is priced only if it
// is not digital and has a resolved price; digital tiles count as
// digital regardless of price; the rest are missing. The counts always
// satisfy priced + missing + digital == total.
func (a *Aggregator) ComputeSide(states []TileState, side domain.Side) domain.SideTotals {
	var t domain.SideTotals
	for _, s := range states {
		if s.Side != side {
			continue
		}
		t.TotalCount++

		switch {
		case s.IsDigital:
			t.DigitalCount++
		case s.RawPrice != nil:
			t.Sum += a.DisplayPrice(*s.RawPrice)
			t.PricedCount++
		default:
			t.MissingCount++
		}
	}
	return t
}

// Compute aggregates both sides at once.
func (a *Aggregator) Compute(states []TileState) (mine, theirs domain.SideTotals) {
	return a.ComputeSide(states, domain.SideMine), a.ComputeSide(states, domain.SideTheirs)
}
