package streaming

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"dhankavach/internal/domain/models"
)

// EventType represents the type of household event
type EventType string

const (
	EventTypeEntityFlagged EventType = "entity.flagged"
	EventTypeApproval      EventType = "approval"
)

// Event is published whenever a profile learns a fraud identifier or an
// approval changes state
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ProfileID string    `json:"profile_id"`

	Entity   *models.FlaggedEntity         `json:"entity,omitempty"`
	Approval *models.FamilyApprovalRequest `json:"approval,omitempty"`
}

// NewEntityFlaggedEvent wraps a flagged entity
func NewEntityFlaggedEvent(profileID string, e models.FlaggedEntity) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      EventTypeEntityFlagged,
		Timestamp: time.Now().UTC(),
		ProfileID: profileID,
		Entity:    &e,
	}
}

// NewApprovalEvent wraps a snapshot of an approval request
func NewApprovalEvent(req *models.FamilyApprovalRequest) *Event {
	snapshot := *req
	snapshot.Reasons = slices.Clone(req.Reasons)
	return &Event{
		ID:        uuid.New().String(),
		Type:      EventTypeApproval,
		Timestamp: time.Now().UTC(),
		ProfileID: req.ProfileID,
		Approval:  &snapshot,
	}
}

// Subject returns the NATS subject for the event under prefix:
// <prefix>.entity.flagged.<kind> or <prefix>.approval.<status>
func (e *Event) Subject(prefix string) string {
	var leaf string
	switch {
	case e.Entity != nil:
		leaf = token(string(e.Entity.Kind))
	case e.Approval != nil:
		leaf = token(string(e.Approval.Status))
	default:
		leaf = "unknown"
	}
	return prefix + "." + string(e.Type) + "." + leaf
}

// token lowercases and strips characters NATS treats as separators or wildcards
func token(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}

// Subscription filters events for a listener
type Subscription struct {
	// Only events for this profile (required for WebSocket clients)
	ProfileID string `json:"profile_id,omitempty"`

	// Filter by event type (empty = all)
	Types []EventType `json:"types,omitempty"`
}

// Matches reports whether event passes the subscription filters
func (s *Subscription) Matches(event *Event) bool {
	if s == nil {
		return true
	}
	if s.ProfileID != "" && s.ProfileID != event.ProfileID {
		return false
	}
	if len(s.Types) > 0 && !slices.Contains(s.Types, event.Type) {
		return false
	}
	return true
}
