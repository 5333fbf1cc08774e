// Package query builds normalized COMC search strings from noisy card
// fields. Normalization is idempotent: re-normalizing an output is a
// no-op, so cache keys derived from queries stay stable.
package query

import (
	"regexp"
	"strings"
)

// Input is the raw field triple a query is built from. Any field may be
// empty.
type Input struct {
	PlayerName string
	InsertName string
	Number     string
}

// Normalizer turns an Input into a single search string using an
// ordered rule table.
type Normalizer struct {
	rules *RuleSet
}

// NewNormalizer creates a Normalizer. A nil rules argument selects the
// built-in table.
func NewNormalizer(rules *RuleSet) *Normalizer {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &Normalizer{rules: rules}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	trailingCLRe = regexp.MustCompile(`(?i)\s+CL$`)

	// Punctuation COMC's search ignores: double quotes (straight and
	// typographic) are dropped, smart single quotes become a plain
	// apostrophe.
	quoteReplacer = strings.NewReplacer(
		`"`, "",
		"“", "",
		"”", "",
		"‘", "'",
		"’", "'",
	)
)

// sanitize normalizes quotes and whitespace.
func sanitize(s string) string {
	s = quoteReplacer.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cleanInsertName applies the ordered phrase rules to a sanitized
// insert name. Rules may cascade; the declared order prevents two rules
// from double-firing on each other's output.
func (n *Normalizer) cleanInsertName(s string) string {
	for i, re := range n.rules.insertRes {
		s = re.ReplaceAllString(s, n.rules.InsertRules[i].Replace)
	}
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cleanPlayerName expands a trailing checklist marker ("CL") to the
// word COMC indexes.
func cleanPlayerName(s string) string {
	return trailingCLRe.ReplaceAllString(sanitize(s), " Checklist")
}

// Build constructs the search string. Empty fields are omitted; an
// all-empty input yields "" and the caller must treat that as "no
// query".
func (n *Normalizer) Build(in Input) string {
	insert := sanitize(in.InsertName)

	number := strings.TrimPrefix(sanitize(in.Number), "#")
	if n.rules.skipNumber(insert) {
		number = ""
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{cleanPlayerName(in.PlayerName), n.cleanInsertName(insert), number} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
