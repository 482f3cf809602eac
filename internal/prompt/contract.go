// Package prompt assembles the generation prompt: grounding rules, retrieved
// context, and pre-computed calculation facts the model must restate rather
// than re-derive.
package prompt

import (
	"strconv"
	"strings"

	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/query"
)

// fmtRupees renders an amount as a plain decimal. Language models mangle
// arithmetic on shorthand like "3L", so every number in the contract is
// fully expanded.
func fmtRupees(n int64) string {
	return strconv.FormatInt(n, 10)
}

// milestoneLadder evaluates every rung of a card's ladder against a spend
// amount. Milestone bonuses are cumulative: each rung pays independently
// once its threshold is met, so a spend past the second rung earns the
// first rung's bonus too.
func milestoneLadder(card *catalog.Card, spend int64) []string {
	if len(card.Milestones) == 0 {
		return nil
	}

	lines := []string{
		card.DisplayName + " milestone ladder at annual spend " + fmtRupees(spend) + ":",
	}

	var total int64
	for _, m := range card.Milestones {
		line := "- spend " + fmtRupees(spend) + " >= " + fmtRupees(m.Threshold) + ": "
		if spend >= m.Threshold {
			line += "qualifies, +" + fmtRupees(m.Bonus) + " bonus points"
			total += m.Bonus
		} else {
			line += "does not qualify (threshold not reached)"
		}
		lines = append(lines, line)
	}

	lines = append(lines, "- total milestone bonus: "+fmtRupees(total)+" points")
	return lines
}

// categoryEarning computes the points a spend earns in one category, applying
// exclusion dominance and cap clamping.
func categoryEarning(card *catalog.Card, category string, spend int64) []string {
	rule := card.RuleFor(category)

	// Exclusion wins over everything, including the general rate.
	if rule != nil && rule.Excluded {
		return []string{
			card.DisplayName + ": " + category + " spends are excluded from rewards, so " +
				fmtRupees(spend) + " spend earns 0 points",
		}
	}

	rate := card.GeneralRate
	source := "general rate"
	if rule != nil && rule.Rate != nil {
		rate = rule.Rate
		source = category + " rate"
	}
	if rate == nil || rate.PerSpend <= 0 {
		desc := "spends"
		if category != "" {
			desc = category + " spends"
		}
		return []string{
			card.DisplayName + ": no documented earning rate for " + desc,
		}
	}

	points := (spend / rate.PerSpend) * rate.Points
	spendDesc := fmtRupees(spend) + " spend"
	if category != "" {
		spendDesc = fmtRupees(spend) + " spend on " + category
	}
	line := card.DisplayName + ": " + spendDesc +
		" earns " + fmtRupees(points) + " points (" + source + " " + fmtRupees(rate.Points) +
		" per " + fmtRupees(rate.PerSpend) + ")"

	lines := []string{line}

	if rule != nil {
		if cap := rule.MonthlyCap; cap > 0 && points > cap {
			lines = append(lines,
				"- capped at "+fmtRupees(cap)+" points per month, so "+fmtRupees(cap)+" points apply")
		}
		if cap := rule.CycleCap; cap > 0 && points > cap {
			lines = append(lines,
				"- capped at "+fmtRupees(cap)+" points per statement cycle, so "+fmtRupees(cap)+" points apply")
		}
		if category == "fuel" {
			if rule.Surcharge == nil {
				lines = append(lines,
					"- fuel surcharge waiver policy is not documented for this card; say so, do not guess")
			} else {
				lines = append(lines,
					"- fuel surcharge waiver: "+strconv.FormatFloat(rule.Surcharge.RatePercent, 'f', -1, 64)+
						"% surcharge waived up to "+fmtRupees(rule.Surcharge.WaiverCap)+" per month")
			}
		}
	} else if category == "fuel" {
		lines = append(lines,
			"- fuel surcharge waiver policy is not documented for this card; say so, do not guess")
	}

	return lines
}

// CalculationNotes pre-computes every arithmetic fact the answer needs so the
// model only restates results. Returns "" when the intent has nothing to
// compute.
func CalculationNotes(cat *catalog.Catalog, intent query.Intent) string {
	if !intent.IsCalculation || len(intent.Amounts) == 0 || len(intent.MentionedCards) == 0 {
		return ""
	}

	var lines []string
	for _, id := range intent.MentionedCards {
		card := cat.ByID(id)
		if card == nil {
			continue
		}

		for _, amount := range intent.Amounts {
			for _, category := range intent.Categories {
				lines = append(lines, categoryEarning(card, category, amount)...)
			}
			if len(intent.Categories) == 0 {
				lines = append(lines, categoryEarning(card, "", amount)...)
			}
			lines = append(lines, milestoneLadder(card, amount)...)
		}
	}

	if len(lines) == 0 {
		return ""
	}

	header := "Pre-computed figures (restate these exactly, do not recompute):"
	return header + "\n" + strings.Join(lines, "\n")
}
