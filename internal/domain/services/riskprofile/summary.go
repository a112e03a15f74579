package riskprofile

import (
	"context"
	"fmt"

	"dhankavach/internal/domain/models"
)

const summaryPreview = 10

// Summary is the compact view of a profile shown to the user
type Summary struct {
	ProfileID        string                    `json:"profile_id"`
	TotalEntities    int                       `json:"total_entities"`
	ByKind           map[models.EntityKind]int `json:"by_kind"`
	HighestRiskScore int                       `json:"highest_risk_score"`
	Recipients       []models.FlaggedEntity    `json:"flagged_recipients"`
	Keywords         []string                  `json:"flagged_keywords"`
}

// Summarize counts a profile's entities and previews the first recipients and keywords
func Summarize(ctx context.Context, r Reader) (*Summary, error) {
	entities, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile %s: %w", r.ID(), err)
	}

	s := &Summary{
		ProfileID:     r.ID(),
		TotalEntities: len(entities),
		ByKind:        make(map[models.EntityKind]int),
		Recipients:    []models.FlaggedEntity{},
		Keywords:      []string{},
	}
	for _, e := range entities {
		s.ByKind[e.Kind]++
		s.HighestRiskScore = max(s.HighestRiskScore, e.RiskScore)

		switch e.Kind {
		case models.EntityKindPhone, models.EntityKindUPI:
			if len(s.Recipients) < summaryPreview {
				s.Recipients = append(s.Recipients, e)
			}
		case models.EntityKindKeyword:
			if len(s.Keywords) < summaryPreview {
				s.Keywords = append(s.Keywords, e.ID)
			}
		}
	}
	return s, nil
}

// Keywords returns the scam phrases remembered for the profile
func Keywords(ctx context.Context, r Reader) ([]string, error) {
	entities, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entities {
		if e.Kind == models.EntityKindKeyword {
			out = append(out, e.ID)
		}
	}
	return out, nil
}
