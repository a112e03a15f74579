package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dhankavach/pkg/logger"
)

// GraphHandler serves scam-chain queries against the graph mirror
type GraphHandler struct {
	finder RelatedFinder
	logger *logger.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(finder RelatedFinder, log *logger.Logger) *GraphHandler {
	return &GraphHandler{
		finder: finder,
		logger: log.WithComponent("graph-handler"),
	}
}

// Related handles GET /api/v1/graph/entities/{entityID}/related
func (h *GraphHandler) Related(w http.ResponseWriter, r *http.Request) {
	entityID := strings.TrimSpace(chi.URLParam(r, "entityID"))
	if entityID == "" {
		respondError(w, http.StatusBadRequest, "entity id is required", "")
		return
	}

	limit := 25
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	related, err := h.finder.RelatedEntities(r.Context(), entityID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("entity_id", entityID).Msg("failed to find related entities")
		respondError(w, http.StatusBadGateway, "failed to find related entities", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entity_id": entityID,
		"related":   related,
		"count":     len(related),
	})
}
