package handlers

import (
	"net/http"

	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/observability"
)

// AdminHandler serves operational endpoints.
type AdminHandler struct {
	logger  *observability.Logger
	catalog *catalog.Store
	cache   cache.Client // nil when caching is disabled
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(logger *observability.Logger, store *catalog.Store, cacheClient cache.Client) *AdminHandler {
	return &AdminHandler{
		logger:  logger.WithComponent("admin_handler"),
		catalog: store,
		cache:   cacheClient,
	}
}

// ReloadCatalog handles POST /api/v1/admin/reload. It swaps in a fresh
// catalog snapshot and drops memoized retrieval results, since they may
// reference cards that no longer exist.
func (h *AdminHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("catalog reload failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.DeleteByPrefix(r.Context(), "q:"); err != nil {
			h.logger.Warn().Err(err).Msg("retrieval cache flush failed after reload")
		}
	}

	cards := len(h.catalog.Current().Cards())
	h.logger.Info().Int("cards", cards).Msg("catalog reloaded")
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "cards": cards})
}
