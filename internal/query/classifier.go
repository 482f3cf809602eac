package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// categoryKeywords maps each spending category to the surface forms that
// signal it. Matching is whole-word over the lower-cased question.
var categoryKeywords = map[string][]string{
	"education":  {"education", "school", "tuition", "college", "university"},
	"fuel":       {"fuel", "petrol", "diesel", "cng"},
	"utility":    {"utility", "utilities", "electricity", "broadband", "mobile bill"},
	"rent":       {"rent", "rental"},
	"jewellery":  {"jewellery", "jewelry", "gold", "bullion"},
	"government": {"government", "tax", "taxes", "gst", "challan"},
	"insurance":  {"insurance", "premium", "policy"},
	"travel":     {"travel", "flight", "flights", "hotel", "hotels", "airline"},
	"dining":     {"dining", "restaurant", "restaurants", "swiggy", "zomato"},
	"grocery":    {"grocery", "groceries", "supermarket"},
	"online":     {"online", "amazon", "flipkart", "myntra"},
	"wallet":     {"wallet", "paytm", "mobikwik"},
}

// calculationVerbs are arithmetic phrasings that mark a calculation query
// even without an explicit amount.
var calculationVerbs = []string{
	"calculate",
	"how many points",
	"how many miles",
	"earn on",
	"points on",
	"points for",
	"miles on",
	"reward on",
}

var (
	// betweenRe captures "between X and Y" comparison constructions.
	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+(.+?)\s+and\s+(.+?)(?:\s+for\b|\s+on\b|\s*[?.,]|$)`)

	// versusRe splits explicit "X vs Y" / "X versus Y" constructions.
	versusRe = regexp.MustCompile(`(?i)\s+(?:vs\.?|versus)\s+`)

	// thanRe splits "X better than Y" comparative constructions; the
	// comparative adjective is part of the separator.
	thanRe = regexp.MustCompile(`(?i)\s+(?:better|worse|cheaper|more\s+rewarding)\s+than\s+`)

	// orRe splits "X or Y" when a comparison cue is present.
	orRe = regexp.MustCompile(`(?i)\s+or\s+`)

	// amountRe matches currency amounts: an optional rupee marker, digits with
	// optional separators, and an optional lakh/crore/thousand shorthand. A
	// numeral with neither marker nor shorthand is not an amount.
	amountRe = regexp.MustCompile(`(?i)(₹\s*|rs\.?\s*|inr\s+)?(\d[\d,]*(?:\.\d+)?)\s*(lakhs?|lacs?|l\b|crores?|cr\b|k\b)?`)

	wordSplitRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// comparisonCues make a bare "X or Y" count as a comparison; without one of
// these, "or" is usually enumerative ("fuel or utility payments").
var comparisonCues = []string{"better", "best", "which", "compare", "comparison", "prefer", "worth"}

// Classifier tags raw question text with intent facets. It is pure: identical
// input always yields an identical Intent, and it never fails.
type Classifier struct{}

// NewClassifier creates a classifier over the static keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify inspects raw text and produces the request's Intent. Unrecognized
// text yields an Intent with every facet empty, never an error.
func (c *Classifier) Classify(raw string) Intent {
	lower := strings.ToLower(strings.TrimSpace(raw))

	intent := Intent{
		Categories: matchCategories(lower),
	}

	intent.Fragments, intent.IsComparison = extractComparison(raw, lower)
	intent.Amounts = extractAmounts(lower)
	intent.IsCalculation = len(intent.Amounts) > 0 || containsAny(lower, calculationVerbs)

	return intent
}

func matchCategories(lower string) []string {
	words := tokenSet(lower)

	var matched []string
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(lower, kw) {
					matched = append(matched, category)
					break
				}
			} else if words[kw] {
				matched = append(matched, category)
				break
			}
		}
	}

	sort.Strings(matched)
	return matched
}

// extractComparison recognizes "X vs Y", cued "X or Y", and "between X and Y"
// constructions and returns the candidate name fragments positionally.
func extractComparison(raw, lower string) ([]string, bool) {
	if m := betweenRe.FindStringSubmatch(raw); m != nil {
		return cleanFragments(m[1], m[2]), true
	}

	if loc := thanRe.FindStringIndex(raw); loc != nil {
		return cleanFragments(raw[:loc[0]], raw[loc[1]:]), true
	}

	if versusRe.MatchString(raw) {
		parts := versusRe.Split(raw, -1)
		return cleanFragments(parts...), true
	}

	if orRe.MatchString(raw) && containsAny(lower, comparisonCues) {
		parts := orRe.Split(raw, -1)
		return cleanFragments(parts...), true
	}

	return nil, false
}

// cleanFragments trims question scaffolding from candidate fragments: leading
// interrogatives ("is", "which is better,") and trailing qualifier clauses
// ("for education payments?").
func cleanFragments(parts ...string) []string {
	var frags []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = trailingClauseRe.ReplaceAllString(p, "")
		p = trailingComparativeRe.ReplaceAllString(p, "")
		p = leadingScaffoldRe.ReplaceAllString(p, "")
		p = strings.Trim(p, " ?.!,")
		if p != "" {
			frags = append(frags, p)
		}
	}
	return frags
}

var (
	trailingClauseRe      = regexp.MustCompile(`(?i)\s+(?:for|on|when|while)\s+.*$`)
	trailingComparativeRe = regexp.MustCompile(`(?i)\s+(?:better|worse|cheaper)\s*$`)
	leadingScaffoldRe     = regexp.MustCompile(`(?i)^(?:is|are|was|does|do|which\s+is|which|what\s+is|what|how\s+is|compare)\s+`)
)

// extractAmounts finds currency amounts and normalizes them to whole rupees.
// "₹1L" → 100000, "3 lakh" → 300000, "1.5 cr" → 15000000. A bare numeral with
// neither a rupee marker nor a magnitude suffix is ignored.
func extractAmounts(lower string) []int64 {
	var amounts []int64
	for _, m := range amountRe.FindAllStringSubmatch(lower, -1) {
		marker := strings.TrimSpace(m[1])
		numStr := strings.ReplaceAll(m[2], ",", "")
		suffix := strings.TrimSpace(m[3])

		if marker == "" && suffix == "" {
			continue
		}

		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(suffix, "l"):
			num *= 100000
		case strings.HasPrefix(suffix, "cr"):
			num *= 10000000
		case suffix == "k":
			num *= 1000
		}

		if num > 0 {
			amounts = append(amounts, int64(num))
		}
	}

	return amounts
}

func tokenSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordSplitRe.Split(lower, -1) {
		if w != "" {
			set[w] = true
		}
	}
	return set
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
