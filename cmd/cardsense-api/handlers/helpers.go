// Package handlers provides HTTP handlers for the CardSense API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cardsense-ai/cardsense/internal/observability"
)

// requestContext carries chi's request ID into the pipeline context so logs
// and audit entries share one identifier.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := chimiddleware.GetReqID(ctx); id != "" {
		ctx = observability.ContextWithRequestID(ctx, id)
	}
	return ctx
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
