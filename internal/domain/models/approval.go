package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the lifecycle state of a family approval request
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalDenied   ApprovalStatus = "DENIED"
)

// Valid reports whether s is a known status
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalDenied:
		return true
	}
	return false
}

// FamilyApprovalRequest gates a risky transaction behind a family member's sign-off.
// It references the transaction; the payment flow owns the transaction itself.
type FamilyApprovalRequest struct {
	ID             string         `json:"id"`
	TransactionRef string         `json:"transaction_ref"`
	ProfileID      string         `json:"profile_id"`
	RiskScore      int            `json:"risk_score"`
	Required       bool           `json:"required"`
	Status         ApprovalStatus `json:"status"`
	Reasons        []string       `json:"reasons,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     string         `json:"resolved_by,omitempty"`
}

// NewFamilyApprovalRequest creates a pending request for a transaction
func NewFamilyApprovalRequest(profileID, transactionRef string, score int, reasons []string) *FamilyApprovalRequest {
	return &FamilyApprovalRequest{
		ID:             uuid.New().String(),
		TransactionRef: transactionRef,
		ProfileID:      profileID,
		RiskScore:      score,
		Required:       true,
		Status:         ApprovalPending,
		Reasons:        reasons,
		CreatedAt:      time.Now().UTC(),
	}
}

// Resolve records the family member's decision. Only pending requests can be resolved.
func (a *FamilyApprovalRequest) Resolve(status ApprovalStatus, by string, at time.Time) error {
	if status != ApprovalApproved && status != ApprovalDenied {
		return ErrInvalidInput
	}
	if a.Status != ApprovalPending {
		return ErrApprovalResolved
	}
	a.Status = status
	a.ResolvedBy = by
	a.ResolvedAt = &at
	return nil
}
