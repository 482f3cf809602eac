package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type catalogDoc struct {
	Version int     `yaml:"version"`
	Cards   []*Card `yaml:"cards"`
}

// Load reads and validates a card catalog document.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML, deriving alias indexes and
// validating every card's rules and milestone ladder.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(doc.Cards) == 0 {
		return nil, fmt.Errorf("catalog contains no cards")
	}

	cat := &Catalog{
		cards:      doc.Cards,
		byID:       make(map[string]*Card, len(doc.Cards)),
		byBank:     make(map[string][]*Card),
		aliasIndex: make(map[string][]*Card),
	}

	for _, card := range doc.Cards {
		if err := validateCard(card); err != nil {
			return nil, fmt.Errorf("card %q: %w", card.ID, err)
		}

		if _, dup := cat.byID[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		cat.byID[card.ID] = card

		bank := strings.ToLower(card.Bank)
		cat.byBank[bank] = append(cat.byBank[bank], card)

		for _, alias := range deriveAliases(card) {
			cat.aliasIndex[alias] = appendUnique(cat.aliasIndex[alias], card)
		}
	}

	cat.sortedAliases = make([]string, 0, len(cat.aliasIndex))
	for alias := range cat.aliasIndex {
		cat.sortedAliases = append(cat.sortedAliases, alias)
	}
	sort.Slice(cat.sortedAliases, func(i, j int) bool {
		if len(cat.sortedAliases[i]) != len(cat.sortedAliases[j]) {
			return len(cat.sortedAliases[i]) > len(cat.sortedAliases[j])
		}
		return cat.sortedAliases[i] < cat.sortedAliases[j]
	})

	return cat, nil
}

func validateCard(card *Card) error {
	if card.ID == "" {
		return fmt.Errorf("missing id")
	}
	if card.DisplayName == "" {
		return fmt.Errorf("missing display_name")
	}
	if card.Bank == "" {
		return fmt.Errorf("missing bank")
	}

	if card.GeneralRate != nil && card.GeneralRate.PerSpend <= 0 {
		return fmt.Errorf("general_rate per_spend must be positive")
	}

	seen := make(map[string]bool, len(card.Rules))
	for _, rule := range card.Rules {
		if rule.Category == "" {
			return fmt.Errorf("category rule missing category")
		}
		if seen[rule.Category] {
			return fmt.Errorf("duplicate rule for category %q", rule.Category)
		}
		seen[rule.Category] = true

		// A category is wholly excluded, capped, or rated; never excluded and
		// rated at once.
		if rule.Excluded && rule.Rate != nil {
			return fmt.Errorf("category %q is both excluded and rated", rule.Category)
		}
		if rule.Rate != nil && rule.Rate.PerSpend <= 0 {
			return fmt.Errorf("category %q rate per_spend must be positive", rule.Category)
		}
	}

	var prev int64
	for i, m := range card.Milestones {
		if m.Threshold <= prev {
			return fmt.Errorf("milestone %d: thresholds must be strictly ascending", i)
		}
		if m.Bonus <= 0 {
			return fmt.Errorf("milestone %d: bonus must be positive", i)
		}
		prev = m.Threshold
	}

	return nil
}

// genericTokens are display-name words too generic to identify a card on
// their own ("gold" is a tier and a spending category, "card" is noise).
// They still participate in full display-name and declared-alias matches.
var genericTokens = map[string]bool{
	"card":     true,
	"credit":   true,
	"bank":     true,
	"gold":     true,
	"platinum": true,
	"select":   true,
	"metal":    true,
	"edition":  true,
}

// deriveAliases returns the full lower-cased alias set for a card: declared
// aliases, the display name, each distinctive display-name token, and the
// bank name.
func deriveAliases(card *Card) []string {
	set := make(map[string]bool)

	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}

	add(card.DisplayName)
	for _, tok := range strings.Fields(card.DisplayName) {
		if !genericTokens[strings.ToLower(tok)] {
			add(tok)
		}
	}
	add(card.Bank)
	for _, alias := range card.Aliases {
		add(alias)
	}

	out := make([]string, 0, len(set))
	for alias := range set {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func appendUnique(cards []*Card, card *Card) []*Card {
	for _, c := range cards {
		if c == card {
			return cards
		}
	}
	return append(cards, card)
}
