package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/observability"
	"github.com/cardsense-ai/cardsense/internal/query"
)

// defaultResultTTL bounds how long a memoized result set stays valid. Card
// terms change on bank schedules, not request schedules, so minutes are safe.
const defaultResultTTL = 5 * time.Minute

// Orchestrator runs the single retrieval pass for a request. It issues
// exactly one search call, optionally memoized, and degrades to an empty
// result set on any backend failure.
type Orchestrator struct {
	search SearchClient
	cache  cache.Client // nil disables memoization
	logger *observability.Logger
	topK   int
	ttl    time.Duration
}

// NewOrchestrator wires an orchestrator. cacheClient may be nil; zero values
// for topK and ttl pick the defaults.
func NewOrchestrator(search SearchClient, cacheClient cache.Client, logger *observability.Logger, topK int, ttl time.Duration) *Orchestrator {
	if topK <= 0 {
		topK = 8
	}
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &Orchestrator{
		search: search,
		cache:  cacheClient,
		logger: logger,
		topK:   topK,
		ttl:    ttl,
	}
}

// Retrieve executes the search for an enhanced query and returns snippets
// sorted by score descending, bounded to the configured top-k.
//
// Comparison queries that name two or three cards get a post-filter: snippets
// for unrelated cards are dropped so one card's documentation cannot crowd
// out the other's. If filtering would discard everything, the unfiltered set
// is kept; thin context beats none.
func (o *Orchestrator) Retrieve(ctx context.Context, eq query.EnhancedQuery, intent query.Intent) []Snippet {
	key := cache.QueryKey(eq.SearchText, eq.CardFilter, eq.TopK)

	if cached, ok := o.fromCache(ctx, key); ok {
		return o.shape(cached, intent)
	}

	snippets, err := o.search.Search(ctx, SearchRequest{
		Query:      eq.SearchText,
		CardFilter: eq.CardFilter,
		TopK:       eq.TopK,
	})
	if err != nil {
		// One shot, no retry. The answer pipeline continues with whatever
		// context it has, which may be none.
		o.logger.Warn().Err(err).Str("query", eq.SearchText).Msg("search backend unavailable, continuing without context")
		return nil
	}

	o.toCache(ctx, key, snippets)
	return o.shape(snippets, intent)
}

func (o *Orchestrator) shape(snippets []Snippet, intent query.Intent) []Snippet {
	if intent.IsComparison && len(intent.MentionedCards) >= 2 && len(intent.MentionedCards) <= 3 {
		mentioned := make(map[string]bool, len(intent.MentionedCards))
		for _, id := range intent.MentionedCards {
			mentioned[id] = true
		}

		filtered := make([]Snippet, 0, len(snippets))
		for _, s := range snippets {
			if mentioned[s.CardID] {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) > 0 {
			snippets = filtered
		}
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})

	if len(snippets) > o.topK {
		snippets = snippets[:o.topK]
	}
	return snippets
}

func (o *Orchestrator) fromCache(ctx context.Context, key string) ([]Snippet, bool) {
	if o.cache == nil {
		return nil, false
	}

	data, err := o.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.logger.Debug().Err(err).Msg("retrieval cache read failed")
		}
		return nil, false
	}

	var snippets []Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		o.logger.Debug().Err(err).Msg("retrieval cache entry corrupt, ignoring")
		return nil, false
	}
	return snippets, true
}

func (o *Orchestrator) toCache(ctx context.Context, key string, snippets []Snippet) {
	if o.cache == nil || len(snippets) == 0 {
		return
	}

	data, err := json.Marshal(snippets)
	if err != nil {
		return
	}
	if err := o.cache.Set(ctx, key, data, o.ttl); err != nil {
		o.logger.Debug().Err(err).Msg("retrieval cache write failed")
	}
}
