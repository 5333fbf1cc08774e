package query

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PhraseRule is one ordered substitution applied to the insert/set
// field. Pattern is a case-insensitive regular expression; rules may
// cascade, so declared order is significant.
type PhraseRule struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// RuleSet is the marketplace-specific normalization table. It is data,
// not code: COMC renames sets independently of this library, so hosts
// can ship an updated table without a new build.
type RuleSet struct {
	// InsertRules are applied to the insert/set field in order.
	InsertRules []PhraseRule `yaml:"insert_rules"`

	// NumberlessInserts are patterns for insert names whose cards COMC
	// indexes without a card number; the number field is omitted from
	// the query when one matches.
	NumberlessInserts []string `yaml:"numberless_inserts"`

	insertRes     []*regexp.Regexp
	numberlessRes []*regexp.Regexp
}

// DefaultRuleSet returns the built-in table. Documented substitutions:
//
//	"Base Set"        -> "Base"
//	"UD Series <n>"   -> "Upper Deck"
//	"UD"              -> "Upper Deck"
//	"Outburst Silver" -> "Outburst"
//	"Parallel"        -> (removed)
//	"Tier <n>"        -> (removed)
//	"Oracles - SSP"   -> "Oracles Rare"
//
// "Young Guns Renewed" cards carry no number on COMC.
func DefaultRuleSet() *RuleSet {
	rs := &RuleSet{
		InsertRules: []PhraseRule{
			{Pattern: `\bBase Set\b`, Replace: "Base"},
			{Pattern: `\bUD\s+Series\s+\d+\b`, Replace: "Upper Deck"},
			{Pattern: `\bUD\b`, Replace: "Upper Deck"},
			{Pattern: `\bOutburst Silver\b`, Replace: "Outburst"},
			{Pattern: `\bParallel\b`, Replace: ""},
			{Pattern: `\bTier\s+\d+\b`, Replace: ""},
			{Pattern: `\bOracles\s*-\s*SSP\b`, Replace: "Oracles Rare"},
		},
		NumberlessInserts: []string{
			`Young Guns Renewed`,
		},
	}
	if err := rs.compile(); err != nil {
		// The built-in table is covered by tests; a bad pattern here is
		// a programming error.
		panic(err)
	}
	return rs
}

// LoadRuleSet parses a YAML rule table.
func LoadRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *RuleSet) compile() error {
	rs.insertRes = make([]*regexp.Regexp, len(rs.InsertRules))
	for i, rule := range rs.InsertRules {
		re, err := regexp.Compile(`(?i)` + rule.Pattern)
		if err != nil {
			return fmt.Errorf("compile insert rule %q: %w", rule.Pattern, err)
		}
		rs.insertRes[i] = re
	}

	rs.numberlessRes = make([]*regexp.Regexp, len(rs.NumberlessInserts))
	for i, pattern := range rs.NumberlessInserts {
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return fmt.Errorf("compile numberless pattern %q: %w", pattern, err)
		}
		rs.numberlessRes[i] = re
	}
	return nil
}

// skipNumber reports whether the insert name matches a numberless
// pattern.
func (rs *RuleSet) skipNumber(insertName string) bool {
	for _, re := range rs.numberlessRes {
		if re.MatchString(insertName) {
			return true
		}
	}
	return false
}
