package models

import (
	"time"
)

// EntityKind is the category of an extracted identifier
type EntityKind string

const (
	EntityKindPhone    EntityKind = "PHONE"
	EntityKindUPI      EntityKind = "UPI"
	EntityKindURL      EntityKind = "URL"
	EntityKindBankName EntityKind = "BANK_NAME"
	EntityKindDocHash  EntityKind = "DOC_HASH"
	EntityKindKeyword  EntityKind = "KEYWORD" // scam phrase remembered from a flagged document
)

// Correlatable reports whether identifiers of this kind take part in
// exact-id correlation. Brand names and phrases describe the scam, not the scammer.
func (k EntityKind) Correlatable() bool {
	switch k {
	case EntityKindPhone, EntityKindUPI, EntityKindURL, EntityKindDocHash:
		return true
	default:
		return false
	}
}

// EntitySource is where a flagged entity was first observed
type EntitySource string

const (
	EntitySourceDocument    EntitySource = "DOCUMENT"
	EntitySourceMessage     EntitySource = "MESSAGE"
	EntitySourceTransaction EntitySource = "TRANSACTION"
)

// Entity is a normalized identifier pulled out of input text
type Entity struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
	Raw  string     `json:"raw,omitempty"` // text as it appeared in the input
}

// FlaggedEntity is an identifier recorded in a risk profile
type FlaggedEntity struct {
	ID        string       `json:"id"`
	Kind      EntityKind   `json:"kind"`
	RiskScore int          `json:"risk_score"`
	Source    EntitySource `json:"source"`
	SourceRef string       `json:"source_ref"`
	FirstSeen time.Time    `json:"first_seen"`
	LastSeen  time.Time    `json:"last_seen"`
	Notes     []string     `json:"notes"`
}

// Merge folds a re-flag of the same identifier into e.
// Score keeps the maximum, notes are appended, first_seen never moves.
func (e FlaggedEntity) Merge(other FlaggedEntity) FlaggedEntity {
	merged := e
	merged.RiskScore = max(e.RiskScore, other.RiskScore)
	merged.Notes = append(append([]string(nil), e.Notes...), other.Notes...)
	if other.LastSeen.After(merged.LastSeen) {
		merged.LastSeen = other.LastSeen
	}
	if merged.FirstSeen.IsZero() || (!other.FirstSeen.IsZero() && other.FirstSeen.Before(merged.FirstSeen)) {
		merged.FirstSeen = other.FirstSeen
	}
	return merged
}

// ClampScore bounds a risk score to [0,10]
func ClampScore(score int) int {
	return min(max(score, 0), 10)
}
