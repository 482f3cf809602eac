// Package answer composes the full pipeline for one question: classify,
// resolve, enhance, retrieve, build the prompt, and stream the generated
// answer.
package answer

import (
	"github.com/cardsense-ai/cardsense/internal/generate"
	"github.com/cardsense-ai/cardsense/internal/query"
)

// Result summarizes one completed answer.
type Result struct {
	RequestID    string          `json:"requestId"`
	Answer       string          `json:"answer"`
	SnippetsUsed int             `json:"snippetsUsed"`
	Intent       query.Summary   `json:"intent"`
	Usage        *generate.Usage `json:"usage,omitempty"`
}

// Emitter receives pipeline progress for one request. Implementations carry
// events to their surface (SSE response, terminal, test capture).
type Emitter interface {
	// Status reports a pipeline stage change ("retrieving", "generating").
	Status(stage string) error

	// Token delivers one streamed answer token.
	Token(token string) error

	// Done delivers the final result once the answer is complete.
	Done(result Result) error
}

// NopEmitter discards all events. Used for the synchronous path.
type NopEmitter struct{}

func (NopEmitter) Status(string) error { return nil }
func (NopEmitter) Token(string) error  { return nil }
func (NopEmitter) Done(Result) error   { return nil }
