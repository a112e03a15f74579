package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/extract"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/pkg/logger"
)

// TransactionConfig carries the operator-tunable transaction inputs
type TransactionConfig struct {
	HighAmountThreshold decimal.Decimal
	// FamilyAllowlist holds phone numbers or UPI ids of known family payees
	FamilyAllowlist []string
	// FamilyRelationTerms are words in a payee name that mark a relative ("maa", "beta", "बेटी")
	FamilyRelationTerms []string
}

// TransactionScorer rates a payment intent before the money moves
type TransactionScorer struct {
	logger    *logger.Logger
	threshold decimal.Decimal
	allowlist map[string]bool
	relations []string
}

// NewTransactionScorer normalizes the allowlist once so lookups are exact
func NewTransactionScorer(cfg TransactionConfig, log *logger.Logger) *TransactionScorer {
	s := &TransactionScorer{
		logger:    log.WithComponent("transaction-scorer"),
		threshold: cfg.HighAmountThreshold,
		allowlist: make(map[string]bool, len(cfg.FamilyAllowlist)),
	}
	for _, raw := range cfg.FamilyAllowlist {
		s.allowlist[recipientKey(raw)] = true
	}
	for _, term := range cfg.FamilyRelationTerms {
		if t := extract.FoldText(strings.TrimSpace(term)); t != "" {
			s.relations = append(s.relations, t)
		}
	}
	return s
}

// IsFamily reports whether the payee is allowlisted by id or described with a relation term
func (s *TransactionScorer) IsFamily(tx models.TransactionRequest) bool {
	if s.allowlist[recipientKey(tx.Recipient)] {
		return true
	}
	name := extract.FoldText(tx.RecipientName)
	for _, term := range s.relations {
		if extract.ContainsPhrase(name, term) {
			return true
		}
	}
	return false
}

// Score rates tx. Keywords remembered in the profile are matched against the
// purpose; a failing profile read drops only that signal.
func (s *TransactionScorer) Score(ctx context.Context, tx models.TransactionRequest, entities []models.Entity, profile riskprofile.Reader) models.AnalysisResult {
	result := models.AnalysisResult{
		Kind:       models.AnalysisKindTransaction,
		Entities:   entities,
		Signals:    []models.Signal{},
		AnalyzedAt: time.Now().UTC(),
	}

	if s.IsFamily(tx) {
		result.AddSignal(LabelFamilyRecipient, 0, tx.Recipient)
	} else {
		s.scoreRecipient(&result, tx)
		s.scoreAmount(&result, tx.Amount)
	}

	for _, m := range mergeByLabel(transactionTable.Match(tx.Purpose)) {
		result.AddSignal(m.Label, m.Weight, strings.Join(m.Phrases, ", "))
	}

	if profile != nil && strings.TrimSpace(tx.Purpose) != "" {
		s.scoreRememberedKeywords(ctx, &result, tx.Purpose, profile)
	}

	result.Finalize()

	s.logger.Debug().
		Str("tx_ref", tx.Ref).
		Int("signals", len(result.Signals)).
		Int("score", result.RiskScore).
		Msg("transaction scored")

	return result
}

func (s *TransactionScorer) scoreRecipient(result *models.AnalysisResult, tx models.TransactionRequest) {
	result.AddSignal(LabelUnknownRecipient, unknownRecipientWeight, tx.Recipient)

	entity, ok := extract.ParseRecipient(tx.Recipient)
	if !ok {
		return
	}
	switch entity.Kind {
	case models.EntityKindPhone:
		result.AddSignal(LabelPhoneRecipient, phoneRecipientWeight, entity.ID)
	case models.EntityKindUPI:
		local, _, _ := strings.Cut(entity.ID, "@")
		for _, w := range suspiciousHandleWords {
			if strings.Contains(local, w) {
				result.AddSignal(LabelSuspiciousUPIHandle, suspiciousHandleWeight, entity.ID)
				break
			}
		}
	}
}

func (s *TransactionScorer) scoreAmount(result *models.AnalysisResult, amount decimal.Decimal) {
	if !s.threshold.IsPositive() {
		return
	}
	switch {
	case amount.GreaterThanOrEqual(s.threshold.Mul(decimal.NewFromInt(veryHighAmountMultiplier))):
		result.AddSignal(LabelVeryHighAmount, veryHighAmountWeight, amount.StringFixed(2))
	case amount.GreaterThanOrEqual(s.threshold):
		result.AddSignal(LabelHighAmount, highAmountWeight, amount.StringFixed(2))
	}
}

func (s *TransactionScorer) scoreRememberedKeywords(ctx context.Context, result *models.AnalysisResult, purpose string, profile riskprofile.Reader) {
	keywords, err := riskprofile.Keywords(ctx, profile)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profile.ID()).Msg("failed to read remembered keywords")
		return
	}

	folded := extract.FoldText(purpose)
	var hits []string
	for _, k := range keywords {
		if extract.ContainsPhrase(folded, k) {
			hits = append(hits, k)
		}
	}
	if len(hits) > 0 {
		result.AddSignal(LabelFlaggedKeywordInTxn, flaggedKeywordWeight, strings.Join(hits, ", "))
	}
}

// recipientKey is the normalized form used for allowlist comparison
func recipientKey(raw string) string {
	if e, ok := extract.ParseRecipient(raw); ok {
		return e.ID
	}
	return extract.FoldText(strings.TrimSpace(raw))
}
