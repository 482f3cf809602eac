// Package catalog provides the read-only card catalog: canonical card
// identities, per-category earning rules, and milestone ladders. The catalog
// is loaded once at startup and replaced only by an explicit admin reload.
package catalog

import (
	"strings"
)

// Rate expresses reward earning as points per spend amount,
// e.g. 5 points per ₹150.
type Rate struct {
	Points   int64 `yaml:"points"`
	PerSpend int64 `yaml:"per_spend"`
}

// Surcharge describes a category surcharge and its waiver cap.
// A nil *Surcharge on a rule means the surcharge policy is not documented
// for that card, which is distinct from a known zero surcharge.
type Surcharge struct {
	RatePercent float64 `yaml:"rate_percent"`
	WaiverCap   int64   `yaml:"waiver_cap"`
}

// CategoryRule is the per-card policy for one spending category.
// A category is either wholly excluded or rated, never both.
type CategoryRule struct {
	Category   string     `yaml:"category"`
	Excluded   bool       `yaml:"excluded"`
	Rate       *Rate      `yaml:"rate"`
	Surcharge  *Surcharge `yaml:"surcharge"`
	MonthlyCap int64      `yaml:"monthly_cap"` // points; 0 = uncapped
	CycleCap   int64      `yaml:"cycle_cap"`   // points per statement cycle; 0 = uncapped
}

// Milestone is one rung of a card's milestone ladder.
type Milestone struct {
	Threshold int64 `yaml:"threshold"` // annual spend in rupees
	Bonus     int64 `yaml:"bonus"`     // bonus points unlocked at the threshold
}

// Card is an immutable canonical card identity.
type Card struct {
	ID          string         `yaml:"id"`
	DisplayName string         `yaml:"display_name"`
	Bank        string         `yaml:"bank"`
	Network     string         `yaml:"network"`
	Aliases     []string       `yaml:"aliases"`
	GeneralRate *Rate          `yaml:"general_rate"`
	Rules       []CategoryRule `yaml:"category_rules"`
	Milestones  []Milestone    `yaml:"milestones"`
}

// RuleFor returns the rule for a category, or nil when the card has none.
func (c *Card) RuleFor(category string) *CategoryRule {
	for i := range c.Rules {
		if c.Rules[i].Category == category {
			return &c.Rules[i]
		}
	}
	return nil
}

// Catalog is an immutable snapshot of all configured cards with derived
// lookup indexes. Safe for unbounded concurrent reads.
type Catalog struct {
	cards  []*Card
	byID   map[string]*Card
	byBank map[string][]*Card

	// aliasIndex maps every lower-cased alias (including derived display-name
	// tokens and bank names) to the cards it could refer to. An alias that
	// maps to more than one card is inherently ambiguous.
	aliasIndex map[string][]*Card

	// sortedAliases holds all indexed aliases longest-first.
	sortedAliases []string
}

// Cards returns all cards in catalog order.
func (c *Catalog) Cards() []*Card { return c.cards }

// ByID returns the card with the given canonical id, or nil.
func (c *Catalog) ByID(id string) *Card { return c.byID[id] }

// CardsOfBank returns all cards issued by the given bank (case-insensitive).
func (c *Catalog) CardsOfBank(bank string) []*Card {
	return c.byBank[strings.ToLower(bank)]
}

// CardsForAlias returns every card a lower-cased alias could refer to.
func (c *Catalog) CardsForAlias(alias string) []*Card {
	return c.aliasIndex[alias]
}

// Aliases returns all indexed aliases sorted longest-first, so multi-word
// aliases are matched before their constituent tokens.
func (c *Catalog) Aliases() []string { return c.sortedAliases }
