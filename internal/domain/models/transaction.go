package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionRequest is a payment intent submitted for a safety check
type TransactionRequest struct {
	Ref           string          `json:"ref"`
	Recipient     string          `json:"recipient"`                // phone number, UPI handle or account label
	RecipientName string          `json:"recipient_name,omitempty"` // how the user describes the payee
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Purpose       string          `json:"purpose,omitempty"`
}

// Validate checks the fields the scorer relies on
func (t *TransactionRequest) Validate() error {
	if t.Recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	return nil
}
