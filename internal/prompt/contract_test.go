package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/query"
)

const contractCatalogYAML = `
version: 1
cards:
  - id: axis-atlas
    display_name: Axis Atlas
    bank: Axis Bank
    general_rate: {points: 2, per_spend: 100}
    milestones:
      - {threshold: 300000, bonus: 2500}
      - {threshold: 750000, bonus: 2500}
      - {threshold: 1500000, bonus: 5000}
  - id: hdfc-infinia
    display_name: HDFC Infinia
    bank: HDFC Bank
    general_rate: {points: 5, per_spend: 150}
    category_rules:
      - category: rent
        excluded: true
      - category: fuel
        rate: {points: 5, per_spend: 150}
        monthly_cap: 1000
      - category: grocery
        rate: {points: 5, per_spend: 150}
`

func contractCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(contractCatalogYAML))
	require.NoError(t, err)
	return cat
}

func TestCalculationNotesMilestoneLadder(t *testing.T) {
	cat := contractCatalog(t)

	// Spend exactly on the first rung: that rung alone pays out.
	intent := query.Intent{
		IsCalculation:  true,
		MentionedCards: []string{"axis-atlas"},
		Amounts:        []int64{300000},
	}
	notes := CalculationNotes(cat, intent)

	assert.Contains(t, notes, "- spend 300000 >= 300000: qualifies, +2500 bonus points")
	assert.Contains(t, notes, "- spend 300000 >= 750000: does not qualify")
	assert.Contains(t, notes, "- spend 300000 >= 1500000: does not qualify")
	assert.Contains(t, notes, "- total milestone bonus: 2500 points")

	// Numbers are plain decimals, never shorthand.
	assert.NotContains(t, notes, "3L")
	assert.NotContains(t, notes, "lakh")
}

func TestCalculationNotesCumulativeLadder(t *testing.T) {
	cat := contractCatalog(t)

	intent := query.Intent{
		IsCalculation:  true,
		MentionedCards: []string{"axis-atlas"},
		Amounts:        []int64{800000},
	}
	notes := CalculationNotes(cat, intent)

	// Both reached rungs pay independently.
	assert.Contains(t, notes, "- spend 800000 >= 300000: qualifies, +2500 bonus points")
	assert.Contains(t, notes, "- spend 800000 >= 750000: qualifies, +2500 bonus points")
	assert.Contains(t, notes, "- total milestone bonus: 5000 points")
}

func TestCalculationNotesExclusionDominates(t *testing.T) {
	cat := contractCatalog(t)

	intent := query.Intent{
		IsCalculation:  true,
		Categories:     []string{"rent"},
		MentionedCards: []string{"hdfc-infinia"},
		Amounts:        []int64{50000},
	}
	notes := CalculationNotes(cat, intent)

	assert.Contains(t, notes, "rent spends are excluded from rewards, so 50000 spend earns 0 points")
	assert.NotContains(t, notes, "general rate 5 per 150")
}

func TestCalculationNotesCategoryEarningAndCaps(t *testing.T) {
	cat := contractCatalog(t)

	t.Run("rate arithmetic floors partial units", func(t *testing.T) {
		intent := query.Intent{
			IsCalculation:  true,
			Categories:     []string{"grocery"},
			MentionedCards: []string{"hdfc-infinia"},
			Amounts:        []int64{10000},
		}
		notes := CalculationNotes(cat, intent)
		// 10000 / 150 = 66 units, 66 * 5 = 330 points.
		assert.Contains(t, notes, "10000 spend on grocery earns 330 points")
	})

	t.Run("monthly cap clamps", func(t *testing.T) {
		intent := query.Intent{
			IsCalculation:  true,
			Categories:     []string{"fuel"},
			MentionedCards: []string{"hdfc-infinia"},
			Amounts:        []int64{100000},
		}
		notes := CalculationNotes(cat, intent)
		// 100000 / 150 = 666 units, 3330 points, clamped to 1000.
		assert.Contains(t, notes, "earns 3330 points")
		assert.Contains(t, notes, "capped at 1000 points per month")
	})
}

func TestCalculationNotesUnknownSurcharge(t *testing.T) {
	cat := contractCatalog(t)

	intent := query.Intent{
		IsCalculation:  true,
		Categories:     []string{"fuel"},
		MentionedCards: []string{"hdfc-infinia"},
		Amounts:        []int64{3000},
	}
	notes := CalculationNotes(cat, intent)

	// The fuel rule exists but carries no surcharge block: the policy is
	// unknown, which is different from a known zero surcharge.
	assert.Contains(t, notes, "fuel surcharge waiver policy is not documented")
}

func TestCalculationNotesEmptyCases(t *testing.T) {
	cat := contractCatalog(t)

	assert.Empty(t, CalculationNotes(cat, query.Intent{}))
	assert.Empty(t, CalculationNotes(cat, query.Intent{IsCalculation: true}))
	assert.Empty(t, CalculationNotes(cat, query.Intent{
		IsCalculation:  true,
		Amounts:        []int64{1000},
		MentionedCards: []string{"no-such-card"},
	}))
}

func TestCalculationNotesGeneralRateFallback(t *testing.T) {
	cat := contractCatalog(t)

	intent := query.Intent{
		IsCalculation:  true,
		MentionedCards: []string{"hdfc-infinia"},
		Amounts:        []int64{15000},
	}
	notes := CalculationNotes(cat, intent)

	// 15000 / 150 = 100 units, 500 points at the general rate.
	assert.Contains(t, notes, "15000 spend earns 500 points")
	assert.True(t, strings.Contains(notes, "general rate 5 per 150"))
}
