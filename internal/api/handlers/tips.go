package handlers

import (
	"net/http"

	"dhankavach/internal/domain/services/orchestrator"
)

// TipsHandler serves bilingual safety tips
type TipsHandler struct{}

// NewTipsHandler creates a new tips handler
func NewTipsHandler() *TipsHandler {
	return &TipsHandler{}
}

// Get handles GET /api/v1/tips?topic= or ?q= for a free-text question
func (h *TipsHandler) Get(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = orchestrator.TopicFor(r.URL.Query().Get("q"))
	}
	respondJSON(w, http.StatusOK, orchestrator.TipsFor(topic))
}
