// Package query provides query understanding for the answer pipeline:
// intent classification, canonical card resolution, and search-query
// enhancement. Everything here is pure computation over the static catalog;
// no stage performs I/O or fails.
package query

// Intent is the per-request classification of a user question. All facets
// default to empty/false, which is the safe "no signal" outcome rather than
// an error.
type Intent struct {
	// Categories holds matched spending categories, sorted.
	Categories []string

	// Fragments holds positional candidate card-name fragments extracted from
	// comparison constructions. Validity is the resolver's concern.
	Fragments []string

	// MentionedCards holds canonical card ids, filled by the resolver.
	MentionedCards []string

	IsComparison  bool
	IsCalculation bool

	// Amounts holds spend amounts normalized to whole rupees.
	Amounts []int64
}

// HasCategory reports whether the intent matched the given category.
func (in Intent) HasCategory(cat string) bool {
	for _, c := range in.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Summary is the externally visible shape of an Intent, exposed for
// observability without leaking internal representations.
type Summary struct {
	Categories     []string `json:"categories,omitempty"`
	MentionedCards []string `json:"mentionedCards,omitempty"`
	IsComparison   bool     `json:"isComparison"`
	IsCalculation  bool     `json:"isCalculation"`
	Amounts        []int64  `json:"amounts,omitempty"`
}

// Summarize converts an Intent into its observable summary.
func (in Intent) Summarize() Summary {
	return Summary{
		Categories:     in.Categories,
		MentionedCards: in.MentionedCards,
		IsComparison:   in.IsComparison,
		IsCalculation:  in.IsCalculation,
		Amounts:        in.Amounts,
	}
}
