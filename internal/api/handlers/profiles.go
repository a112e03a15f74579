package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/pkg/logger"
)

// ProfilesHandler exposes what a household's risk profile has learned
type ProfilesHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(o *orchestrator.Orchestrator, log *logger.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		orchestrator: o,
		logger:       log.WithComponent("profiles-handler"),
	}
}

// Summary handles GET /api/v1/profiles/{profileID}
func (h *ProfilesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")

	summary, err := h.orchestrator.ProfileSummary(r.Context(), profileID)
	if err != nil {
		h.logError(err, profileID, "failed to summarize profile")
		respondDomainError(w, err, "failed to summarize profile")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Entity handles GET /api/v1/profiles/{profileID}/entities/{entityID}
func (h *ProfilesHandler) Entity(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	entityID := chi.URLParam(r, "entityID")

	entity, err := h.orchestrator.ProfileEntity(r.Context(), profileID, entityID)
	if err != nil {
		h.logError(err, profileID, "failed to look up entity")
		respondDomainError(w, err, "entity lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, entity)
}

func (h *ProfilesHandler) logError(err error, profileID, msg string) {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidInput) {
		return
	}
	h.logger.Error().Err(err).Str("profile_id", profileID).Msg(msg)
}
