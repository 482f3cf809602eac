package query

import (
	"strings"

	"github.com/cardsense-ai/cardsense/internal/catalog"
)

// categorySynonyms are the domain terms appended to the search string when a
// category is detected. Small fixed sets: over-expansion dilutes the query
// past the backend's useful length and recall collapses to zero results.
var categorySynonyms = map[string]string{
	"education":  "school fees tuition college",
	"fuel":       "petrol diesel CNG surcharge waiver",
	"utility":    "electricity bill payment utilities",
	"rent":       "rent payment landlord",
	"jewellery":  "gold jewellery purchase",
	"government": "government tax payment GST",
	"insurance":  "insurance premium payment",
	"travel":     "flight hotel booking miles",
	"dining":     "restaurant dining offer",
	"grocery":    "grocery supermarket spends",
	"online":     "online shopping cashback",
	"wallet":     "wallet load prepaid",
}

// EnhancedQuery is the rewritten query actually sent to the search backend,
// distinct from the user's original question.
type EnhancedQuery struct {
	SearchText string
	CardFilter string // canonical card id; empty means search unfiltered
	TopK       int
}

// EnhancerConfig bounds the rewrite.
type EnhancerConfig struct {
	MaxQueryChars   int
	TopK            int
	MaxSynonymCats  int
	MaxInjectedCard int
}

// DefaultEnhancerConfig returns the empirically safe rewrite bounds.
func DefaultEnhancerConfig() EnhancerConfig {
	return EnhancerConfig{
		MaxQueryChars:   200,
		TopK:            8,
		MaxSynonymCats:  2,
		MaxInjectedCard: 3,
	}
}

// Enhancer rewrites user text into a search-optimized query.
type Enhancer struct {
	cfg EnhancerConfig
}

// NewEnhancer creates an enhancer with the given bounds, filling zero values
// from the defaults.
func NewEnhancer(cfg EnhancerConfig) *Enhancer {
	def := DefaultEnhancerConfig()
	if cfg.MaxQueryChars <= 0 {
		cfg.MaxQueryChars = def.MaxQueryChars
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxSynonymCats <= 0 {
		cfg.MaxSynonymCats = def.MaxSynonymCats
	}
	if cfg.MaxInjectedCard <= 0 {
		cfg.MaxInjectedCard = def.MaxInjectedCard
	}
	return &Enhancer{cfg: cfg}
}

// Enhance builds the search query from the raw question and its intent.
//
// The assembly order is deliberate: the user's words are the anchor, card
// names are injected only when no single-card filter applies, and category
// synonyms go last so truncation drops them first. Truncation never cuts the
// user's original words in favor of anything appended.
func (e *Enhancer) Enhance(raw string, intent Intent, cat *catalog.Catalog) EnhancedQuery {
	base := strings.Join(strings.Fields(raw), " ")

	eq := EnhancedQuery{TopK: e.cfg.TopK}

	// A hard filter is only safe when the query is unambiguously about one
	// card; the filter already scopes retrieval, so the name is not repeated
	// in the search text. A comparison never gets a filter, even when only
	// one side resolved: the unresolved side still needs unfiltered recall,
	// so the resolved card's name is injected instead.
	var injected []string
	if len(intent.MentionedCards) == 1 && !intent.IsComparison {
		eq.CardFilter = intent.MentionedCards[0]
	} else if len(intent.MentionedCards) > 0 {
		for i, id := range intent.MentionedCards {
			if i >= e.cfg.MaxInjectedCard {
				break
			}
			if card := cat.ByID(id); card != nil && !containsWholeWord(strings.ToLower(base), strings.ToLower(card.DisplayName)) {
				injected = append(injected, card.DisplayName)
			}
		}
	}

	var synonyms []string
	for i, category := range intent.Categories {
		if i >= e.cfg.MaxSynonymCats {
			break
		}
		if syn, ok := categorySynonyms[category]; ok {
			synonyms = append(synonyms, syn)
		}
	}

	eq.SearchText = e.compose(base, injected, synonyms)
	return eq
}

// compose joins the parts and enforces the length budget, dropping appended
// synonyms first, then injected card names, and only then cutting the user's
// own words.
func (e *Enhancer) compose(base string, injected, synonyms []string) string {
	max := e.cfg.MaxQueryChars

	join := func(inj, syn []string) string {
		parts := append([]string{base}, inj...)
		parts = append(parts, syn...)
		return strings.TrimSpace(strings.Join(parts, " "))
	}

	for len(synonyms) > 0 && len(join(injected, synonyms)) > max {
		synonyms = synonyms[:len(synonyms)-1]
	}
	for len(injected) > 0 && len(join(injected, synonyms)) > max {
		injected = injected[:len(injected)-1]
	}

	out := join(injected, synonyms)
	if len(out) > max {
		out = truncateAtWord(out, max)
	}
	return out
}

// truncateAtWord cuts s to at most max bytes, at a word boundary when one is
// reasonably close.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
