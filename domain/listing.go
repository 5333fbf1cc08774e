package domain

import "time"

// Listing is one row parsed from a COMC search results page. Auction
// rows are counted but never included in price selection.
type Listing struct {
	Description string
	Link        string
	Price       float64
	IsAuction   bool
	IsBase      bool
	Quantity    *int // "N from $x.yz" caption, nil when absent
}

// ListingCounts summarizes one results page.
type ListingCounts struct {
	NonAuctionTotal int
	AuctionTotal    int
	BaseCount       int
	NonBaseCount    int
}

// CachePayload is the per-query result written to the cache. Price is
// nil for a "searched, nothing priced" result; caching those prevents
// refetching queries known to be empty.
type CachePayload struct {
	Price    *float64 `json:"price"`
	Link     string   `json:"link,omitempty"`
	Tooltip  string   `json:"tooltip,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
}

// PriceSnapshot records one freshly observed marketplace price so price
// movement between runs stays queryable.
type PriceSnapshot struct {
	Query      string
	Price      *float64
	Quantity   *int
	ObservedAt time.Time
}
