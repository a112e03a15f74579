package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/pkg/logger"
)

const maxAttachments = 5

// AnalysisHandler serves the analysis pipeline
type AnalysisHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(o *orchestrator.Orchestrator, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: o,
		logger:       log.WithComponent("analysis-handler"),
	}
}

// AnalyzeRequest is the request body for free-text analysis
type AnalyzeRequest struct {
	ProfileID   string   `json:"profile_id"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"` // base64 (standard encoding)
	Agent       string   `json:"agent,omitempty"`
	Narrate     bool     `json:"narrate,omitempty"`
}

// CheckTransactionRequest is the request body for a payment check
type CheckTransactionRequest struct {
	ProfileID string `json:"profile_id"`
	models.TransactionRequest
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondDomainError(w, err, "invalid request body")
		return
	}

	req := orchestrator.Request{
		ProfileID: body.ProfileID,
		Text:      body.Text,
		Agent:     orchestrator.AgentKind(body.Agent),
		Narrate:   body.Narrate,
	}
	if req.Agent != "" && !req.Agent.Valid() {
		respondError(w, http.StatusBadRequest, "unknown agent", body.Agent)
		return
	}
	if len(body.Attachments) > maxAttachments {
		respondError(w, http.StatusBadRequest, "too many attachments", fmt.Sprintf("at most %d", maxAttachments))
		return
	}
	for i, encoded := range body.Attachments {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid attachment", fmt.Sprintf("attachment %d is not base64", i))
			return
		}
		req.Attachments = append(req.Attachments, raw)
	}

	resp, err := h.orchestrator.Analyze(r.Context(), req)
	if err != nil {
		h.logger.Debug().Err(err).Str("profile_id", body.ProfileID).Msg("analysis rejected")
		respondDomainError(w, err, "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CheckTransaction handles POST /api/v1/transactions/check
func (h *AnalysisHandler) CheckTransaction(w http.ResponseWriter, r *http.Request) {
	var body CheckTransactionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondDomainError(w, err, "invalid request body")
		return
	}

	resp, err := h.orchestrator.CheckTransaction(r.Context(), body.ProfileID, body.TransactionRequest)
	if err != nil {
		h.logger.Debug().Err(err).Str("profile_id", body.ProfileID).Msg("transaction check rejected")
		respondDomainError(w, err, "transaction check failed")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
