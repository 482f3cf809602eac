package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cardsense-ai/cardsense/internal/answer"
	"github.com/cardsense-ai/cardsense/internal/observability"
)

// AnswerHandler serves question answering, streamed and synchronous.
type AnswerHandler struct {
	logger  *observability.Logger
	service *answer.Service
}

// NewAnswerHandler creates an answer handler.
func NewAnswerHandler(logger *observability.Logger, service *answer.Service) *AnswerHandler {
	return &AnswerHandler{
		logger:  logger.WithComponent("answer_handler"),
		service: service,
	}
}

// AnswerRequestDTO is the request body for both answer endpoints.
type AnswerRequestDTO struct {
	Query string `json:"query"`
}

// sseEmitter writes pipeline events as server-sent events.
type sseEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e *sseEmitter) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e *sseEmitter) Status(stage string) error {
	return e.send("status", map[string]string{"stage": stage})
}

func (e *sseEmitter) Token(token string) error {
	return e.send("token", map[string]string{"token": token})
}

func (e *sseEmitter) Done(result answer.Result) error {
	// The full answer already streamed as tokens; the done event carries
	// only the request metadata.
	result.Answer = ""
	return e.send("done", result)
}

// Stream handles POST /api/v1/answer, streaming the answer over SSE.
func (h *AnswerHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	em := &sseEmitter{w: w, flusher: flusher}
	if _, err := h.service.Answer(requestContext(r), req.Query, em); err != nil {
		// Headers are gone; the error has to travel in-band.
		h.logger.WithRequest(r.Context()).Error().Err(err).Msg("answer stream failed")
		_ = em.send("error", map[string]string{"error": "answer generation failed"})
	}
}

// Sync handles POST /api/v1/answer/sync, returning the full answer as JSON.
func (h *AnswerHandler) Sync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.AnswerSync(requestContext(r), req.Query)
	if err != nil {
		h.logger.WithRequest(r.Context()).Error().Err(err).Msg("answer failed")
		writeError(w, http.StatusBadGateway, "answer generation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AnswerHandler) decode(w http.ResponseWriter, r *http.Request) (AnswerRequestDTO, bool) {
	var req AnswerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return req, false
	}
	return req, true
}
