package models

import "errors"

var (
	// ErrStoreUnavailable marks a risk profile backend that could not answer.
	// Callers must treat it as "unknown", never as "no match".
	ErrStoreUnavailable = errors.New("risk profile store unavailable")
	ErrNotFound         = errors.New("not found")
	ErrApprovalResolved = errors.New("approval request already resolved")
	ErrInvalidInput     = errors.New("invalid input")
)
