package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardsense-ai/cardsense/internal/audit"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/generate"
	"github.com/cardsense-ai/cardsense/internal/observability"
	"github.com/cardsense-ai/cardsense/internal/prompt"
	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

// Retriever is the single retrieval pass the service depends on.
type Retriever interface {
	Retrieve(ctx context.Context, eq query.EnhancedQuery, intent query.Intent) []retrieval.Snippet
}

// Service answers questions about the card catalog.
type Service struct {
	catalog    *catalog.Store
	classifier *query.Classifier
	enhancer   *query.Enhancer
	retriever  Retriever
	builder    *prompt.Builder
	generator  generate.Generator
	audit      *audit.Store // nil disables auditing
	logger     *observability.Logger
}

// NewService wires the pipeline. auditStore may be nil.
func NewService(
	cat *catalog.Store,
	enhancer *query.Enhancer,
	retriever Retriever,
	builder *prompt.Builder,
	generator generate.Generator,
	auditStore *audit.Store,
	logger *observability.Logger,
) *Service {
	return &Service{
		catalog:    cat,
		classifier: query.NewClassifier(),
		enhancer:   enhancer,
		retriever:  retriever,
		builder:    builder,
		generator:  generator,
		audit:      auditStore,
		logger:     logger.WithComponent("answer"),
	}
}

// Answer runs the pipeline for one question, streaming tokens through em.
// The emitter's Done is called exactly once on success; on failure the error
// is returned instead.
func (s *Service) Answer(ctx context.Context, rawQuery string, em Emitter) (Result, error) {
	start := time.Now()

	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = observability.ContextWithRequestID(ctx, requestID)
	}
	log := s.logger.WithRequest(ctx)

	rawQuery = strings.TrimSpace(rawQuery)
	if rawQuery == "" {
		return Result{}, fmt.Errorf("empty query")
	}

	// The whole request runs against one catalog snapshot; a concurrent
	// reload cannot change the card table mid-pipeline.
	cat := s.catalog.Current()

	intent := s.classifier.Classify(rawQuery)
	intent.MentionedCards = query.NewResolver(cat).ResolveAll(rawQuery, intent)

	eq := s.enhancer.Enhance(rawQuery, intent, cat)

	log.Debug().
		Strs("categories", intent.Categories).
		Strs("cards", intent.MentionedCards).
		Bool("comparison", intent.IsComparison).
		Bool("calculation", intent.IsCalculation).
		Str("search_text", eq.SearchText).
		Msg("query understood")

	if err := em.Status("retrieving"); err != nil {
		return Result{}, err
	}
	snippets := s.retriever.Retrieve(ctx, eq, intent)

	p := s.builder.Build(cat, intent, snippets, rawQuery)

	if err := em.Status("generating"); err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	usage, err := s.generator.Stream(ctx, messagesFor(p), func(tok string) error {
		sb.WriteString(tok)
		return em.Token(tok)
	})
	if err != nil {
		s.record(ctx, rawQuery, intent, len(snippets), false, start)
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	result := Result{
		RequestID:    requestID,
		Answer:       sb.String(),
		SnippetsUsed: len(snippets),
		Intent:       intent.Summarize(),
		Usage:        usage,
	}

	if err := em.Done(result); err != nil {
		return result, err
	}

	s.record(ctx, rawQuery, intent, len(snippets), true, start)
	log.Info().
		Int("snippets", len(snippets)).
		Dur("elapsed", time.Since(start)).
		Msg("answer complete")

	return result, nil
}

// AnswerSync runs the pipeline without streaming and returns the full answer.
func (s *Service) AnswerSync(ctx context.Context, rawQuery string) (Result, error) {
	return s.Answer(ctx, rawQuery, NopEmitter{})
}

// messagesFor flattens an assembled prompt into chat messages. Context rides
// in the user turn so backends with strict system-message handling still see
// it adjacent to the question.
func messagesFor(p prompt.Prompt) []generate.Message {
	user := p.UserQuery
	if p.Context != "" {
		user = p.Context + "\n\nQuestion: " + p.UserQuery
	}
	return []generate.Message{
		{Role: "system", Content: p.System},
		{Role: "user", Content: user},
	}
}

// record writes the audit entry. Best-effort: failures are logged, never
// surfaced.
func (s *Service) record(ctx context.Context, rawQuery string, intent query.Intent, snippetCount int, answered bool, start time.Time) {
	if s.audit == nil {
		return
	}

	intentJSON, _ := json.Marshal(intent.Summarize())

	// Detached from the request context so client disconnects do not lose
	// the entry.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.audit.Record(auditCtx, audit.Entry{
		RequestID:    observability.RequestIDFromContext(ctx),
		Query:        rawQuery,
		IntentJSON:   string(intentJSON),
		SnippetCount: snippetCount,
		Answered:     answered,
		DurationMs:   time.Since(start).Milliseconds(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("audit write failed")
	}
}
