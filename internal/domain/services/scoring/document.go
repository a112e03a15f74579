package scoring

import (
	"context"
	"strings"
	"time"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/pkg/logger"
)

// DocumentScorer rates loan offers, policy papers and similar documents
type DocumentScorer struct {
	logger *logger.Logger
}

// NewDocumentScorer creates a document scorer
func NewDocumentScorer(log *logger.Logger) *DocumentScorer {
	return &DocumentScorer{logger: log.WithComponent("document-scorer")}
}

// Score evaluates the document rule tables against text. The profile is not
// consulted; connections are the correlation engine's job.
func (s *DocumentScorer) Score(_ context.Context, text string, entities []models.Entity, _ riskprofile.Reader) models.AnalysisResult {
	result := models.AnalysisResult{
		Kind:       models.AnalysisKindDocument,
		Entities:   entities,
		Signals:    []models.Signal{},
		AnalyzedAt: time.Now().UTC(),
	}

	for _, m := range mergeByLabel(documentTable.Match(text)) {
		result.AddSignal(m.Label, m.Weight, strings.Join(m.Phrases, ", "))
		if m.Memorable {
			result.MatchedPhrases = append(result.MatchedPhrases, m.Phrases...)
		}
	}

	docType := ClassifyDocument(text)
	if required, ok := requiredRegulator(docType); ok && !hasRegulatorMarker(text, docType) {
		result.AddSignal(LabelMissingRegulator, missingRegulatorWeight, string(docType)+" document without "+required+" registration")
	}

	for _, e := range entities {
		if e.Kind == models.EntityKindPhone {
			result.AddSignal(LabelPersonalContact, personalContactWeight, e.ID)
			break
		}
	}

	result.MatchedPhrases = dedupe(result.MatchedPhrases)
	result.Finalize()

	s.logger.Debug().
		Str("doc_type", string(docType)).
		Int("signals", len(result.Signals)).
		Int("score", result.RiskScore).
		Msg("document scored")

	return result
}

// ClassifyDocument infers the document type from its vocabulary
func ClassifyDocument(text string) DocumentType {
	best, bestHits := DocumentTypeGeneral, 0
	for _, m := range docTypeTable.Match(text) {
		if len(m.Phrases) > bestHits {
			best, bestHits = DocumentType(m.Category), len(m.Phrases)
		}
	}
	return best
}

func requiredRegulator(t DocumentType) (string, bool) {
	for _, r := range regulatorRules {
		if r.Category == string(t) {
			return r.Label, true
		}
	}
	return "", false
}

func hasRegulatorMarker(text string, t DocumentType) bool {
	for _, m := range regulatorTable.Match(text) {
		if m.Category == string(t) {
			return true
		}
	}
	return false
}
