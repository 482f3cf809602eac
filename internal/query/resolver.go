package query

import (
	"strings"

	"github.com/cardsense-ai/cardsense/internal/catalog"
)

// Resolver maps free-text card mentions to canonical card ids using the
// catalog's alias index. A resolver is bound to one catalog snapshot, so a
// request sees a consistent card table end to end.
type Resolver struct {
	cat *catalog.Catalog
}

// NewResolver creates a resolver over a catalog snapshot.
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve maps a text fragment to zero, one, or many canonical card ids.
//
// An alias that identifies exactly one card resolves deterministically. An
// alias shared by several cards (a bare bank name, or a product line with
// multiple variants) contributes nothing: resolving it to any single card
// would silently scope retrieval to the wrong product, so ambiguity yields
// an empty set and retrieval runs unfiltered.
func (r *Resolver) Resolve(fragment string) []string {
	lower := strings.ToLower(strings.TrimSpace(fragment))
	if lower == "" {
		return nil
	}

	var ids []string
	seen := make(map[string]bool)
	consumed := make(map[string]bool)

	// Longest aliases first, so "infinia metal" wins over "infinia" and a
	// matched span is not re-counted for its sub-tokens.
	for _, alias := range r.cat.Aliases() {
		if !containsWholeWord(lower, alias) || coveredBy(consumed, alias) {
			continue
		}

		cards := r.cat.CardsForAlias(alias)
		if len(cards) != 1 {
			// Ambiguous alias: could refer to more than one current (or
			// future) card under the same bank. Deliberately no match.
			continue
		}

		id := cards[0].ID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		for _, tok := range strings.Fields(alias) {
			consumed[tok] = true
		}
	}

	return ids
}

// ResolveAll resolves every card mentioned by a query. For comparison
// intents each extracted fragment is resolved positionally; otherwise the
// whole question is scanned once.
func (r *Resolver) ResolveAll(raw string, intent Intent) []string {
	if intent.IsComparison && len(intent.Fragments) > 0 {
		var ids []string
		seen := make(map[string]bool)
		for _, frag := range intent.Fragments {
			for _, id := range r.Resolve(frag) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		return ids
	}

	return r.Resolve(raw)
}

// containsWholeWord reports whether needle appears in haystack on word
// boundaries. Multi-word needles match as a phrase.
func containsWholeWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)

		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}

		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

// coveredBy reports whether every token of alias was already consumed by a
// longer matched alias.
func coveredBy(consumed map[string]bool, alias string) bool {
	toks := strings.Fields(alias)
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		if !consumed[tok] {
			return false
		}
	}
	return true
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
