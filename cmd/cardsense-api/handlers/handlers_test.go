package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsense-ai/cardsense/internal/answer"
	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/generate"
	"github.com/cardsense-ai/cardsense/internal/observability"
	"github.com/cardsense-ai/cardsense/internal/prompt"
	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

const handlersCatalogYAML = `
cards:
  - id: hdfc-infinia
    display_name: HDFC Infinia
    bank: HDFC Bank
    network: Visa
    aliases: [infinia]
    general_rate: {points: 5, per_spend: 150}
`

func newCatalogStore(t *testing.T, content string) (*catalog.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	store, err := catalog.NewStore(path)
	require.NoError(t, err)
	return store, path
}

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, query.EnhancedQuery, query.Intent) []retrieval.Snippet {
	return []retrieval.Snippet{{CardID: "hdfc-infinia", SectionLabel: "rewards", Text: "5 per 150", Score: 0.9}}
}

type stubGenerator struct {
	tokens []string
}

func (g stubGenerator) Stream(_ context.Context, _ []generate.Message, onToken generate.TokenFunc) (*generate.Usage, error) {
	for _, tok := range g.tokens {
		if err := onToken(tok); err != nil {
			return nil, err
		}
	}
	return &generate.Usage{TotalTokens: 10}, nil
}

func (g stubGenerator) Complete(ctx context.Context, messages []generate.Message) (string, *generate.Usage, error) {
	var sb strings.Builder
	usage, err := g.Stream(ctx, messages, func(tok string) error {
		sb.WriteString(tok)
		return nil
	})
	return sb.String(), usage, err
}

func newTestService(t *testing.T, store *catalog.Store) *answer.Service {
	t.Helper()
	return answer.NewService(
		store,
		query.NewEnhancer(query.DefaultEnhancerConfig()),
		stubRetriever{},
		prompt.NewBuilder(6000),
		stubGenerator{tokens: []string{"5 points ", "per 150."}},
		nil,
		observability.Nop(),
	)
}

func TestAnswerSyncEndpoint(t *testing.T) {
	store, _ := newCatalogStore(t, handlersCatalogYAML)
	h := NewAnswerHandler(observability.Nop(), newTestService(t, store))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer/sync",
		strings.NewReader(`{"query":"rewards on infinia?"}`))
	rec := httptest.NewRecorder()
	h.Sync(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"answer":"5 points per 150."`)
	assert.Contains(t, body, `"snippetsUsed":1`)
}

func TestAnswerSyncRejectsBadBody(t *testing.T) {
	store, _ := newCatalogStore(t, handlersCatalogYAML)
	h := NewAnswerHandler(observability.Nop(), newTestService(t, store))

	for _, body := range []string{"", "{}", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answer/sync", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Sync(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestAnswerStreamEndpoint(t *testing.T) {
	store, _ := newCatalogStore(t, handlersCatalogYAML)
	h := NewAnswerHandler(observability.Nop(), newTestService(t, store))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer",
		strings.NewReader(`{"query":"rewards on infinia?"}`))
	rec := httptest.NewRecorder()
	h.Stream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `event: status`)
	assert.Contains(t, body, `"stage":"retrieving"`)
	assert.Contains(t, body, `"stage":"generating"`)
	assert.Contains(t, body, `event: token`)
	assert.Contains(t, body, `"token":"5 points "`)
	assert.Contains(t, body, `event: done`)

	// Token order is preserved on the wire.
	assert.Less(t, strings.Index(body, `"5 points "`), strings.Index(body, `"per 150."`))
}

func TestCardsListEndpoint(t *testing.T) {
	store, _ := newCatalogStore(t, handlersCatalogYAML)
	h := NewCardsHandler(observability.Nop(), store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"hdfc-infinia"`)
	assert.Contains(t, rec.Body.String(), `"displayName":"HDFC Infinia"`)
}

func TestAdminReloadEndpoint(t *testing.T) {
	store, path := newCatalogStore(t, handlersCatalogYAML)
	mem := cache.NewMemoryClient(10)
	defer mem.Close()
	h := NewAdminHandler(observability.Nop(), store, mem)

	require.NoError(t, mem.Set(context.Background(), "q:stale", []byte("x"), time.Minute))

	t.Run("reload succeeds and flushes cache", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(handlersCatalogYAML+`
  - id: axis-atlas
    display_name: Axis Atlas
    bank: Axis Bank
    general_rate: {points: 2, per_spend: 100}
`), 0o644))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reload", nil)
		rec := httptest.NewRecorder()
		h.ReloadCatalog(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"cards":2`)

		_, err := mem.Get(context.Background(), "q:stale")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("invalid catalog keeps old snapshot", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("cards: []\n"), 0o644))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reload", nil)
		rec := httptest.NewRecorder()
		h.ReloadCatalog(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Len(t, store.Current().Cards(), 2)
	})
}
