package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FullExample(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.Build(Input{
		PlayerName: "Jane Doe CL",
		InsertName: "UD Series 2 Base Set Parallel",
		Number:     "#12",
	})

	assert.Equal(t, "Jane Doe Checklist Upper Deck Base 12", got)
}

func TestBuild_Idempotent(t *testing.T) {
	n := NewNormalizer(nil)

	first := n.Build(Input{
		PlayerName: "Jane Doe CL",
		InsertName: "UD Series 2 Base Set Parallel",
		Number:     "#12",
	})

	// Feeding a built query back through must not change it.
	second := n.Build(Input{PlayerName: first})
	assert.Equal(t, first, second)
}

func TestBuild_PhraseRules(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name   string
		insert string
		want   string
	}{
		{"base set", "Base Set", "Base"},
		{"ud series", "UD Series 1", "Upper Deck"},
		{"bare ud", "UD Canvas", "Upper Deck Canvas"},
		{"outburst silver", "Outburst Silver", "Outburst"},
		{"parallel removed", "Canvas Parallel", "Canvas"},
		{"tier removed", "Rookies Tier 2", "Rookies"},
		{"oracles ssp", "Oracles - SSP", "Oracles Rare"},
		{"case insensitive", "base set", "Base"},
		{"no partial word match", "Parallelogram", "Parallelogram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Build(Input{InsertName: tt.insert}))
		})
	}
}

func TestBuild_NumberHandling(t *testing.T) {
	n := NewNormalizer(nil)

	// Leading # is stripped.
	assert.Equal(t, "Jane Doe 45", n.Build(Input{PlayerName: "Jane Doe", Number: "#45"}))
	assert.Equal(t, "Jane Doe 45", n.Build(Input{PlayerName: "Jane Doe", Number: "45"}))

	// Numberless inserts drop the number entirely.
	got := n.Build(Input{
		PlayerName: "Jane Doe",
		InsertName: "Young Guns Renewed",
		Number:     "#12",
	})
	assert.Equal(t, "Jane Doe Young Guns Renewed", got)
}

func TestBuild_ChecklistMarker(t *testing.T) {
	n := NewNormalizer(nil)

	assert.Equal(t, "Jane Doe Checklist", n.Build(Input{PlayerName: "Jane Doe CL"}))

	// Only a trailing marker expands.
	assert.Equal(t, "CL Jane Doe", n.Build(Input{PlayerName: "CL Jane Doe"}))

	// Case-insensitive.
	assert.Equal(t, "Jane Doe Checklist", n.Build(Input{PlayerName: "Jane Doe cl"}))
}

func TestBuild_QuotesAndWhitespace(t *testing.T) {
	n := NewNormalizer(nil)

	assert.Equal(t, "Jane The Kid Doe", n.Build(Input{PlayerName: `Jane "The Kid" Doe`}))
	assert.Equal(t, "Jane's Insert", n.Build(Input{InsertName: "Jane’s   Insert"}))
	assert.Equal(t, "Jane Doe", n.Build(Input{PlayerName: "  Jane \t Doe  "}))
}

func TestBuild_EmptyInput(t *testing.T) {
	n := NewNormalizer(nil)

	assert.Equal(t, "", n.Build(Input{}))
	assert.Equal(t, "", n.Build(Input{PlayerName: "   ", InsertName: "\t"}))

	// Empty fields are omitted without extra separators.
	assert.Equal(t, "Jane Doe 12", n.Build(Input{PlayerName: "Jane Doe", Number: "12"}))
}

func TestLoadRuleSet(t *testing.T) {
	data := []byte(`
insert_rules:
  - pattern: '\bAcetate\b'
    replace: "Clear Cut"
numberless_inserts:
  - 'Day With The Cup'
`)

	rs, err := LoadRuleSet(data)
	require.NoError(t, err)

	n := NewNormalizer(rs)
	assert.Equal(t, "Clear Cut Rookies", n.Build(Input{InsertName: "Acetate Rookies"}))
	assert.Equal(t, "Day With The Cup", n.Build(Input{InsertName: "Day With The Cup", Number: "7"}))
}

func TestLoadRuleSet_BadPattern(t *testing.T) {
	_, err := LoadRuleSet([]byte("insert_rules:\n  - pattern: '('\n    replace: x\n"))
	assert.Error(t, err)
}

func TestDefaultRuleSet_Compiles(t *testing.T) {
	require.NotPanics(t, func() { DefaultRuleSet() })
}
