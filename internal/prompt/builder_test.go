package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

func TestBuildAssemblesSections(t *testing.T) {
	cat := contractCatalog(t)
	b := NewBuilder(6000)

	snippets := []retrieval.Snippet{
		{CardID: "hdfc-infinia", SectionLabel: "rewards", Text: "5 reward points per 150 spent.", Score: 0.9},
		{CardID: "hdfc-infinia", SectionLabel: "exclusions", Text: "Rent payments earn no points.", Score: 0.7},
	}
	intent := query.Intent{
		IsCalculation:  true,
		Categories:     []string{"rent"},
		MentionedCards: []string{"hdfc-infinia"},
		Amounts:        []int64{50000},
	}

	p := b.Build(cat, intent, snippets, "Do I earn points on ₹50,000 rent with HDFC Infinia?")

	assert.Equal(t, SystemPrompt, p.System)
	assert.Equal(t, "Do I earn points on ₹50,000 rent with HDFC Infinia?", p.UserQuery)

	assert.Contains(t, p.Context, "[hdfc-infinia/rewards]")
	assert.Contains(t, p.Context, "[hdfc-infinia/exclusions]")
	assert.Contains(t, p.Context, "Pre-computed figures")
	assert.Contains(t, p.Context, "earns 0 points")

	// Higher scored snippet comes first.
	assert.Less(t,
		strings.Index(p.Context, "[hdfc-infinia/rewards]"),
		strings.Index(p.Context, "[hdfc-infinia/exclusions]"))
}

func TestBuildDropsLowestScoredWhenOverBudget(t *testing.T) {
	cat := contractCatalog(t)
	b := NewBuilder(200)

	snippets := []retrieval.Snippet{
		{CardID: "a", SectionLabel: "s1", Text: strings.Repeat("x", 120), Score: 0.9},
		{CardID: "a", SectionLabel: "s2", Text: strings.Repeat("y", 120), Score: 0.5},
	}

	p := b.Build(cat, query.Intent{}, snippets, "q")

	assert.Contains(t, p.Context, "[a/s1]")
	assert.NotContains(t, p.Context, "[a/s2]")
}

func TestBuildWithNoSnippets(t *testing.T) {
	cat := contractCatalog(t)
	b := NewBuilder(6000)

	p := b.Build(cat, query.Intent{}, nil, "what is the joining fee")

	require.Empty(t, p.Context)
	assert.Equal(t, "what is the joining fee", p.UserQuery)
}

func TestBuildKeepsUserQueryVerbatim(t *testing.T) {
	cat := contractCatalog(t)
	b := NewBuilder(6000)

	raw := "  weird   spacing ₹1L and UPPER case?  "
	p := b.Build(cat, query.Intent{}, nil, raw)
	assert.Equal(t, raw, p.UserQuery)
}
