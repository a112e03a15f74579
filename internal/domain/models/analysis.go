package models

import (
	"time"
)

// Verdict is the discretized risk classification of a score
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictScam       Verdict = "SCAM"       // high tier for messages
	VerdictFraudulent Verdict = "FRAUDULENT" // high tier for documents
	VerdictCritical   Verdict = "CRITICAL"   // high tier for transactions
)

// Recommendation is the action paired with a verdict
type Recommendation string

const (
	RecommendationAllow  Recommendation = "ALLOW"
	RecommendationVerify Recommendation = "VERIFY"
	RecommendationBlock  Recommendation = "BLOCK"
)

// CorrelationStatus tells whether connected_matches can be trusted
type CorrelationStatus string

const (
	CorrelationChecked CorrelationStatus = "CHECKED"
	CorrelationUnknown CorrelationStatus = "UNKNOWN" // store failed, matches are not known
	CorrelationSkipped CorrelationStatus = "SKIPPED" // nothing to look up
)

// AnalysisKind selects the verdict vocabulary of the high tier
type AnalysisKind string

const (
	AnalysisKindDocument    AnalysisKind = "document"
	AnalysisKindMessage     AnalysisKind = "message"
	AnalysisKindTransaction AnalysisKind = "transaction"
	AnalysisKindAdvisory    AnalysisKind = "advisory"
)

// Score tiers. Lower bounds are inclusive.
const (
	SuspiciousThreshold = 3
	HighRiskThreshold   = 7
	MaxScore            = 10
)

// Signal is one matched rule
type Signal struct {
	Label    string `json:"label"`
	Severity int    `json:"severity"`
	Detail   string `json:"detail,omitempty"`
}

// AnalysisResult is produced once per request and is never persisted itself
type AnalysisResult struct {
	Kind              AnalysisKind      `json:"kind"`
	RiskScore         int               `json:"risk_score"`
	Verdict           Verdict           `json:"verdict"`
	Recommendation    Recommendation    `json:"recommendation"`
	Signals           []Signal          `json:"signals"`
	MatchedPhrases    []string          `json:"matched_phrases,omitempty"`
	Entities          []Entity          `json:"entities,omitempty"`
	ConnectedMatches  []FlaggedEntity   `json:"connected_matches"`
	IsConnected       bool              `json:"is_connected"`
	CorrelationStatus CorrelationStatus `json:"correlation_status"`
	AnalyzedAt        time.Time         `json:"analyzed_at"`
}

// CorrelationResult is the outcome of checking identifiers against risk profiles.
// Matches is only meaningful when Status is CHECKED.
type CorrelationResult struct {
	Matches     []FlaggedEntity   `json:"matches"`
	IsConnected bool              `json:"is_connected"`
	Status      CorrelationStatus `json:"status"`
	Err         error             `json:"-"`
}

// VerdictFor maps a score onto the step function for the given analysis kind
func VerdictFor(kind AnalysisKind, score int) (Verdict, Recommendation) {
	switch {
	case score >= HighRiskThreshold:
		switch kind {
		case AnalysisKindDocument:
			return VerdictFraudulent, RecommendationBlock
		case AnalysisKindTransaction:
			return VerdictCritical, RecommendationBlock
		default:
			return VerdictScam, RecommendationBlock
		}
	case score >= SuspiciousThreshold:
		return VerdictSuspicious, RecommendationVerify
	default:
		return VerdictSafe, RecommendationAllow
	}
}

// Flagged reports whether the result is serious enough to record its identifiers
func (r *AnalysisResult) Flagged() bool {
	return r.RiskScore >= SuspiciousThreshold
}

// AddSignal appends a signal and adds its severity to the raw score
func (r *AnalysisResult) AddSignal(label string, severity int, detail string) {
	r.Signals = append(r.Signals, Signal{Label: label, Severity: severity, Detail: detail})
	r.RiskScore += severity
}

// Finalize clamps the score and derives verdict and recommendation
func (r *AnalysisResult) Finalize() {
	r.RiskScore = ClampScore(r.RiskScore)
	r.Verdict, r.Recommendation = VerdictFor(r.Kind, r.RiskScore)
}
