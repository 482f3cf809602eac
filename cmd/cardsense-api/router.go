// Package main provides the CardSense API server entrypoint.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cardsense-ai/cardsense/cmd/cardsense-api/handlers"
	"github.com/cardsense-ai/cardsense/cmd/cardsense-api/middleware"
	"github.com/cardsense-ai/cardsense/internal/answer"
	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/config"
	"github.com/cardsense-ai/cardsense/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(
	logger *observability.Logger,
	cfg *config.Config,
	catalogStore *catalog.Store,
	service *answer.Service,
	cacheClient cache.Client,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"cardsense"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if len(catalogStore.Current().Cards()) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"catalog empty"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	answerHandler := handlers.NewAnswerHandler(logger, service)
	cardsHandler := handlers.NewCardsHandler(logger, catalogStore)
	adminHandler := handlers.NewAdminHandler(logger, catalogStore, cacheClient)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/answer", answerHandler.Stream)
		r.Post("/answer/sync", answerHandler.Sync)
		r.Get("/cards", cardsHandler.List)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.Server.AdminToken))
			r.Post("/reload", adminHandler.ReloadCatalog)
		})
	})

	return r
}
