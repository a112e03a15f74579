package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"dhankavach/internal/domain/models"
)

// maxBodyBytes bounds request bodies; base64 attachments are the largest input
const maxBodyBytes = 10 << 20

// ErrorResponse is the envelope for every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// respondDomainError maps the model sentinels to status codes. Unknown errors
// are logged by the caller and reported without internals.
func respondDomainError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, message, err.Error())
	case errors.Is(err, models.ErrApprovalResolved):
		respondError(w, http.StatusConflict, message, err.Error())
	case errors.Is(err, models.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, message, "risk profile store unavailable")
	default:
		respondError(w, http.StatusInternalServerError, message, "")
	}
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", models.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}
	return nil
}
