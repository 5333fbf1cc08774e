package epack

import "strings"

// TradeIDFromPath extracts the trade identifier from a page location
// path, e.g. "/Trading/Details/12345" -> "12345". Returns "" when the
// path carries no Details segment.
func TradeIDFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "Details" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}
