package comc

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the production COMC endpoint.
const DefaultBaseURL = "https://www.comc.com"

// searchSuffix restricts results to fixed-price ungraded cards.
const searchSuffix = ",fb,aUngraded"

// encodeQuery applies COMC's custom substitutions before standard URL
// escaping. The search endpoint embeds the query in the path using a
// non-standard format where "." and "," are significant, so they are
// replaced by escape tokens first:
//
//	"." -> "{46}"
//	"," -> "~2c"
func encodeQuery(query string) string {
	query = strings.ReplaceAll(query, ".", "{46}")
	query = strings.ReplaceAll(query, ",", "~2c")

	// QueryEscape encodes spaces as "+", which the path-embedded format
	// does not accept.
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// SearchURL returns the results-page URL for a normalized query against
// the given base URL.
func SearchURL(baseURL, query string) string {
	return baseURL + "/Cards,=" + encodeQuery(query) + searchSuffix
}
