package prompt

import (
	"strings"

	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

// SystemPrompt is the grounding contract for the answer model.
const SystemPrompt = `You are CardSense, an assistant for Indian credit card rewards and fees.

Rules:
1. Answer only from the provided context and pre-computed figures. If the context does not cover the question, say you do not have that information.
2. Never invent card benefits, rates, caps, or fees.
3. When pre-computed figures are provided, restate them exactly. Do not perform your own arithmetic.
4. When a policy is marked as not documented, say it is not documented rather than guessing.
5. Quote amounts in plain rupees without abbreviations.
6. Keep answers concise and directly address the question asked.`

// Prompt is a fully assembled generation request.
type Prompt struct {
	System    string
	Context   string
	UserQuery string
}

// Builder assembles prompts under a context-size budget.
type Builder struct {
	snippetBudget int
}

// NewBuilder creates a builder. budget bounds the total characters of
// retrieved context included in a prompt.
func NewBuilder(snippetBudget int) *Builder {
	if snippetBudget <= 0 {
		snippetBudget = 6000
	}
	return &Builder{snippetBudget: snippetBudget}
}

// Build assembles the prompt for one request. Snippets must arrive sorted by
// score descending; when the budget forces a cut, the lowest-scored snippets
// are dropped first. The user's question is passed through verbatim.
func (b *Builder) Build(cat *catalog.Catalog, intent query.Intent, snippets []retrieval.Snippet, userQuery string) Prompt {
	var sections []string

	if ctx := b.formatSnippets(snippets); ctx != "" {
		sections = append(sections, ctx)
	}

	if notes := CalculationNotes(cat, intent); notes != "" {
		sections = append(sections, notes)
	}

	return Prompt{
		System:    SystemPrompt,
		Context:   strings.Join(sections, "\n\n"),
		UserQuery: userQuery,
	}
}

// formatSnippets renders snippets as tagged blocks, best-scored first,
// stopping when the character budget is spent.
func (b *Builder) formatSnippets(snippets []retrieval.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Context:")

	used := sb.Len()
	for _, s := range snippets {
		block := "\n\n[" + s.CardID + "/" + s.SectionLabel + "]\n" + strings.TrimSpace(s.Text)
		if used+len(block) > b.snippetBudget {
			break
		}
		sb.WriteString(block)
		used += len(block)
	}

	if sb.Len() == len("Context:") {
		return ""
	}
	return sb.String()
}
