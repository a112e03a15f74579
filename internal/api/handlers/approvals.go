package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/pkg/logger"
)

// ApprovalsHandler lets family members review held payments
type ApprovalsHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
}

// NewApprovalsHandler creates a new approvals handler
func NewApprovalsHandler(o *orchestrator.Orchestrator, log *logger.Logger) *ApprovalsHandler {
	return &ApprovalsHandler{
		orchestrator: o,
		logger:       log.WithComponent("approvals-handler"),
	}
}

// ResolveRequest is the request body for an approval decision
type ResolveRequest struct {
	Decision   string `json:"decision"` // approve | deny
	ResolvedBy string `json:"resolved_by"`
}

// Get handles GET /api/v1/approvals/{approvalID}
func (h *ApprovalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.orchestrator.GetApproval(r.Context(), chi.URLParam(r, "approvalID"))
	if err != nil {
		respondDomainError(w, err, "approval not available")
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// Resolve handles POST /api/v1/approvals/{approvalID}/resolve
func (h *ApprovalsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "approvalID")

	var body ResolveRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondDomainError(w, err, "invalid request body")
		return
	}

	var approve bool
	switch strings.ToLower(strings.TrimSpace(body.Decision)) {
	case "approve", "approved":
		approve = true
	case "deny", "denied":
	default:
		respondError(w, http.StatusBadRequest, "invalid decision", `decision must be "approve" or "deny"`)
		return
	}

	req, err := h.orchestrator.ResolveApproval(r.Context(), id, approve, body.ResolvedBy)
	if err != nil {
		h.logger.Debug().Err(err).Str("approval_id", id).Msg("approval not resolved")
		respondDomainError(w, err, "failed to resolve approval")
		return
	}
	respondJSON(w, http.StatusOK, req)
}
