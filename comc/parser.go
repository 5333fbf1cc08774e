package comc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"epack-comc-prices/domain"
)

// SearchResult is one parsed results page. Listings holds only priced
// non-auction rows; Counts covers everything the page showed.
type SearchResult struct {
	Listings []domain.Listing
	Counts   domain.ListingCounts
}

var (
	// First "$<digits>,<digits>.<exactly two decimals>" in the visible
	// price text.
	priceRe = regexp.MustCompile(`\$[\d,]*\.?\d{2}`)

	// Quantity caption, e.g. "111 from $0.50".
	quantityRe = regexp.MustCompile(`(?i)^(\d+)\s+from`)

	// A literal [Base] tag.
	baseTagRe = regexp.MustCompile(`(?i)\[\s*Base\s*\]`)
)

// isBaseDescription classifies base vs variant. A [Base] tag followed
// by a "- <qualifier>" names a variant of the base set, not the base
// card itself.
func isBaseDescription(desc string) bool {
	loc := baseTagRe.FindStringIndex(desc)
	if loc == nil {
		return false
	}
	rest := strings.TrimLeft(desc[loc[1]:], " \t")
	return !strings.HasPrefix(rest, "-")
}

// parsePrice extracts a dollar amount from visible price text.
func parsePrice(text string) (float64, bool) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	m = strings.NewReplacer("$", "", ",", "").Replace(m)
	price, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// collapseSpace normalizes whitespace in scraped text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseSearch parses a results page. Rows missing either their data
// block or their price block are skipped as non-listings. A page that
// fails to parse at all is reported as an error; the pipeline treats it
// as zero listings.
func ParseSearch(markup string) (*SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	result := &SearchResult{}

	doc.Find(".results .cardInfoWrapper").Each(func(_ int, row *goquery.Selection) {
		dataDiv := row.Find(".carddata").First()
		priceDiv := row.Find(".listprice").First()
		if dataDiv.Length() == 0 || priceDiv.Length() == 0 {
			return
		}

		if priceDiv.HasClass("auctionItem") {
			result.Counts.AuctionTotal++
			return
		}
		result.Counts.NonAuctionTotal++

		desc := collapseSpace(dataDiv.Find(".description").First().Text())

		var link string
		if href, ok := dataDiv.Find("h3.title a").First().Attr("href"); ok && href != "" {
			link = DefaultBaseURL + href
		}

		priceText := priceDiv.Find("a").First().Text()
		if priceText == "" {
			priceText = priceDiv.Text()
		}
		price, ok := parsePrice(priceText)
		if !ok {
			return
		}

		var quantity *int
		qtyText := strings.TrimSpace(priceDiv.Find(".qty").First().Text())
		if m := quantityRe.FindStringSubmatch(qtyText); m != nil {
			if q, err := strconv.Atoi(m[1]); err == nil {
				quantity = &q
			}
		}

		isBase := isBaseDescription(desc)
		if isBase {
			result.Counts.BaseCount++
		} else {
			result.Counts.NonBaseCount++
		}

		result.Listings = append(result.Listings, domain.Listing{
			Description: desc,
			Link:        link,
			Price:       price,
			IsAuction:   false,
			IsBase:      isBase,
			Quantity:    quantity,
		})
	})

	return result, nil
}

// SelectListing picks the representative listing: the cheapest
// non-auction row, ties broken by document order. Returns nil when no
// listing qualifies.
func SelectListing(listings []domain.Listing) *domain.Listing {
	var best *domain.Listing
	for i := range listings {
		l := &listings[i]
		if l.IsAuction {
			continue
		}
		if best == nil || l.Price < best.Price {
			best = l
		}
	}
	return best
}
