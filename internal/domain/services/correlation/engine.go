package correlation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/pkg/logger"
)

// Signal labels added to an analysis by Apply
const (
	LabelConnectedMatch    = "connected_intelligence_match"
	LabelLookupUnavailable = "profile_lookup_unavailable"
)

// Engine cross-references a request's identifiers against the user's profile
// and the shared community profile
type Engine struct {
	community riskprofile.Reader
	logger    *logger.Logger

	statsMu        sync.RWMutex
	correlations   int64
	connections    int64
	lookupFailures int64
	skipped        int64
	lastConnected  time.Time
}

// Stats is a snapshot of the engine counters
type Stats struct {
	Correlations   int64     `json:"correlations"`
	Connections    int64     `json:"connections"`
	LookupFailures int64     `json:"lookup_failures"`
	Skipped        int64     `json:"skipped"`
	LastConnected  time.Time `json:"last_connected,omitempty"`
}

// NewEngine creates a correlation engine. A nil community reader disables the
// community lookup.
func NewEngine(community riskprofile.Reader, log *logger.Logger) *Engine {
	return &Engine{
		community: community,
		logger:    log.WithComponent("correlation-engine"),
	}
}

// Correlate intersects the correlatable entity ids with the stored ones.
// A failed lookup yields UNKNOWN unless a match was already confirmed elsewhere.
func (e *Engine) Correlate(ctx context.Context, entities []models.Entity, profile riskprofile.Reader) models.CorrelationResult {
	ids := LookupIDs(entities)
	if len(ids) == 0 {
		e.record(models.CorrelationSkipped, false)
		return models.CorrelationResult{Matches: []models.FlaggedEntity{}, Status: models.CorrelationSkipped}
	}

	var readers []riskprofile.Reader
	if profile != nil {
		readers = append(readers, profile)
	}
	if e.community != nil && (profile == nil || profile.ID() != e.community.ID()) {
		readers = append(readers, e.community)
	}

	matches := []models.FlaggedEntity{}
	seen := make(map[string]bool)
	var errs []error
	for _, r := range readers {
		found, err := r.Lookup(ctx, ids)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to look up profile %s: %w", r.ID(), err))
			continue
		}
		for _, f := range found {
			// the user's own flag wins over the community copy of the same id
			if !f.Kind.Correlatable() || seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			matches = append(matches, f)
		}
	}

	result := models.CorrelationResult{
		Matches:     matches,
		IsConnected: len(matches) > 0,
		Status:      models.CorrelationChecked,
	}
	if len(errs) > 0 {
		result.Err = fmt.Errorf("%w: %w", models.ErrStoreUnavailable, errors.Join(errs...))
		e.logger.Warn().Err(result.Err).Int("ids", len(ids)).Msg("profile lookup failed")
		if !result.IsConnected {
			result.Status = models.CorrelationUnknown
		}
	}

	if result.IsConnected {
		e.logger.Info().
			Int("matches", len(matches)).
			Str("first_match", matches[0].ID).
			Msg("connected intelligence match")
	}

	e.record(result.Status, result.IsConnected)
	if len(errs) > 0 {
		e.statsMu.Lock()
		e.lookupFailures++
		e.statsMu.Unlock()
	}
	return result
}

// Apply merges a correlation outcome into a scored result. A connection lifts
// the score to the ceiling; an unknown outcome is never reported as SAFE.
func Apply(result *models.AnalysisResult, c models.CorrelationResult) {
	result.ConnectedMatches = c.Matches
	if result.ConnectedMatches == nil {
		result.ConnectedMatches = []models.FlaggedEntity{}
	}
	result.IsConnected = c.IsConnected
	result.CorrelationStatus = c.Status

	switch {
	case c.IsConnected:
		result.AddSignal(LabelConnectedMatch, models.MaxScore, describeMatches(c.Matches))
		result.Finalize()
	case c.Status == models.CorrelationUnknown:
		result.AddSignal(LabelLookupUnavailable, 0, "previous flags could not be checked")
		result.Finalize()
		if result.Verdict == models.VerdictSafe {
			result.Verdict = models.VerdictSuspicious
		}
		if result.Recommendation == models.RecommendationAllow {
			result.Recommendation = models.RecommendationVerify
		}
	}
}

// LookupIDs returns the distinct ids of correlatable entities in input order
func LookupIDs(entities []models.Entity) []string {
	var ids []string
	seen := make(map[string]bool, len(entities))
	for _, en := range entities {
		if !en.Kind.Correlatable() || en.ID == "" || seen[en.ID] {
			continue
		}
		seen[en.ID] = true
		ids = append(ids, en.ID)
	}
	return ids
}

// GetStats returns the engine counters
func (e *Engine) GetStats() Stats {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	return Stats{
		Correlations:   e.correlations,
		Connections:    e.connections,
		LookupFailures: e.lookupFailures,
		Skipped:        e.skipped,
		LastConnected:  e.lastConnected,
	}
}

func (e *Engine) record(status models.CorrelationStatus, connected bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	e.correlations++
	if status == models.CorrelationSkipped {
		e.skipped++
	}
	if connected {
		e.connections++
		e.lastConnected = time.Now()
	}
}

func describeMatches(matches []models.FlaggedEntity) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s %s flagged at %d from %s", m.Kind, m.ID, m.RiskScore, strings.ToLower(string(m.Source))))
	}
	return strings.Join(parts, "; ")
}
