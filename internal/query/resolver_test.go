package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsense-ai/cardsense/internal/catalog"
)

const testCatalogYAML = `
version: 1
cards:
  - id: hdfc-infinia
    display_name: HDFC Infinia
    bank: HDFC Bank
    network: Visa
    aliases: [infinia]
    general_rate: {points: 5, per_spend: 150}
  - id: hdfc-regalia-gold
    display_name: HDFC Regalia Gold
    bank: HDFC Bank
    network: Visa
    aliases: [regalia gold, regalia]
    general_rate: {points: 4, per_spend: 150}
  - id: axis-atlas
    display_name: Axis Atlas
    bank: Axis Bank
    network: Visa
    aliases: [atlas]
    general_rate: {points: 2, per_spend: 100}
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	return cat
}

func TestResolveFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{
			name:     "unique declared alias",
			fragment: "tell me about the infinia",
			want:     []string{"hdfc-infinia"},
		},
		{
			name:     "full display name",
			fragment: "hdfc infinia lounge access",
			want:     []string{"hdfc-infinia"},
		},
		{
			name:     "bare bank name is ambiguous",
			fragment: "my hdfc card",
			want:     nil,
		},
		{
			name:     "two word alias",
			fragment: "regalia gold benefits",
			want:     []string{"hdfc-regalia-gold"},
		},
		{
			name:     "generic tier word alone resolves nothing",
			fragment: "points on gold purchases",
			want:     nil,
		},
		{
			name:     "partial word does not match",
			fragment: "infiniamax subscription",
			want:     nil,
		},
		{
			name:     "empty fragment",
			fragment: "   ",
			want:     nil,
		},
	}

	r := NewResolver(testCatalog(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.fragment))
		})
	}
}

func TestResolveBankNameUniqueWhenSingleCard(t *testing.T) {
	// With only one HDFC card configured, "hdfc" stops being ambiguous.
	cat, err := catalog.Parse([]byte(`
version: 1
cards:
  - id: hdfc-infinia
    display_name: HDFC Infinia
    bank: HDFC Bank
    general_rate: {points: 5, per_spend: 150}
`))
	require.NoError(t, err)

	r := NewResolver(cat)
	assert.Equal(t, []string{"hdfc-infinia"}, r.Resolve("is my hdfc card good for travel"))
}

func TestResolveAll(t *testing.T) {
	r := NewResolver(testCatalog(t))

	t.Run("comparison resolves per fragment", func(t *testing.T) {
		intent := Intent{
			IsComparison: true,
			Fragments:    []string{"Axis Atlas", "HDFC Infinia better"},
		}
		got := r.ResolveAll("Is Axis Atlas or HDFC Infinia better for travel?", intent)
		assert.Equal(t, []string{"axis-atlas", "hdfc-infinia"}, got)
	})

	t.Run("comparison deduplicates repeated mentions", func(t *testing.T) {
		intent := Intent{
			IsComparison: true,
			Fragments:    []string{"infinia", "the infinia card"},
		}
		got := r.ResolveAll("infinia vs the infinia card", intent)
		assert.Equal(t, []string{"hdfc-infinia"}, got)
	})

	t.Run("non comparison scans whole question", func(t *testing.T) {
		got := r.ResolveAll("how many points on atlas for flights", Intent{})
		assert.Equal(t, []string{"axis-atlas"}, got)
	})

	t.Run("no mention yields empty", func(t *testing.T) {
		got := r.ResolveAll("best card for groceries", Intent{})
		assert.Empty(t, got)
	})
}
