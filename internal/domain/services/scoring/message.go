package scoring

import (
	"context"
	"strings"
	"time"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/extract"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/pkg/logger"
)

// MessageScorer rates forwarded SMS, WhatsApp and e-mail text
type MessageScorer struct {
	logger *logger.Logger
}

// NewMessageScorer creates a message scorer
func NewMessageScorer(log *logger.Logger) *MessageScorer {
	return &MessageScorer{logger: log.WithComponent("message-scorer")}
}

// Score checks the English and Hindi tables against the same text, then adds
// link and brand signals from the extracted entities.
func (s *MessageScorer) Score(_ context.Context, text string, entities []models.Entity, _ riskprofile.Reader) models.AnalysisResult {
	result := models.AnalysisResult{
		Kind:       models.AnalysisKindMessage,
		Entities:   entities,
		Signals:    []models.Signal{},
		AnalyzedAt: time.Now().UTC(),
	}

	for _, m := range mergeByLabel(messageTable.Match(text)) {
		result.AddSignal(m.Label, m.Weight, strings.Join(m.Phrases, ", "))
	}

	var brands, phones []string
	var unofficial []string
	reasons := make(map[string][]string)
	var reasonOrder []string

	for _, e := range entities {
		switch e.Kind {
		case models.EntityKindBankName:
			brands = append(brands, e.ID)
		case models.EntityKindPhone:
			phones = append(phones, e.ID)
		case models.EntityKindURL:
			raw := e.Raw
			if raw == "" {
				raw = e.ID
			}
			a := extract.AnalyzeURL(raw)
			if !a.Official {
				unofficial = append(unofficial, a.Normalized)
			}
			for _, reason := range a.Reasons {
				if _, seen := reasons[reason]; !seen {
					reasonOrder = append(reasonOrder, reason)
				}
				reasons[reason] = append(reasons[reason], a.Normalized)
			}
		}
	}

	for _, reason := range reasonOrder {
		result.AddSignal(reason, urlReasonWeights[reason], strings.Join(reasons[reason], ", "))
	}

	if len(brands) > 0 && len(unofficial) > 0 {
		result.AddSignal(LabelBrandUnofficialLink, brandUnofficialLinkWeight,
			strings.Join(brands, ", ")+" with "+strings.Join(unofficial, ", "))
	}
	if len(brands) > 0 && len(phones) > 0 {
		result.AddSignal(LabelBrandPersonalNumber, brandPersonalNumberWeight,
			strings.Join(brands, ", ")+" with "+strings.Join(phones, ", "))
	}

	result.Finalize()

	s.logger.Debug().
		Int("signals", len(result.Signals)).
		Int("score", result.RiskScore).
		Msg("message scored")

	return result
}
