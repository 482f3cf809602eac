package handlers

import (
	"net/http"

	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/observability"
)

// CardsHandler serves the card catalog listing.
type CardsHandler struct {
	logger  *observability.Logger
	catalog *catalog.Store
}

// NewCardsHandler creates a cards handler.
func NewCardsHandler(logger *observability.Logger, store *catalog.Store) *CardsHandler {
	return &CardsHandler{
		logger:  logger.WithComponent("cards_handler"),
		catalog: store,
	}
}

// CardDTO is the external shape of one catalog card.
type CardDTO struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Bank        string   `json:"bank"`
	Network     string   `json:"network,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Milestones  int      `json:"milestones"`
}

// List handles GET /api/v1/cards.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	cards := h.catalog.Current().Cards()

	dtos := make([]CardDTO, 0, len(cards))
	for _, c := range cards {
		dtos = append(dtos, CardDTO{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			Bank:        c.Bank,
			Network:     c.Network,
			Aliases:     c.Aliases,
			Milestones:  len(c.Milestones),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"cards": dtos})
}
