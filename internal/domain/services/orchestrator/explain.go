package orchestrator

import (
	"fmt"
	"strings"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/correlation"
	"dhankavach/internal/domain/services/scoring"
)

var signalText = map[string]string{
	correlation.LabelConnectedMatch:    "this number or ID was flagged in an earlier document or message",
	correlation.LabelLookupUnavailable: "earlier warnings could not be checked right now",
	scoring.LabelMissingRegulator:      "no regulator registration is mentioned",
	scoring.LabelPersonalContact:       "it gives a personal mobile number as contact",
	scoring.LabelUpfrontFee:            "it asks for a fee before paying out",
	scoring.LabelGuaranteedReturn:      "it promises guaranteed returns",
	scoring.LabelSensitiveInfoRequest:  "it asks for an OTP, PIN or password",
	scoring.LabelPhoneRecipient:        "the money goes to a bare mobile number",
	scoring.LabelFlaggedKeywordInTxn:   "the payment purpose repeats a phrase from a flagged document",
}

// Explain renders a short bilingual explanation without a model
func Explain(result models.AnalysisResult) string {
	var reasons []string
	for _, s := range result.Signals {
		if text, ok := signalText[s.Label]; ok {
			reasons = append(reasons, text)
		}
	}

	var b strings.Builder
	switch result.Recommendation {
	case models.RecommendationBlock:
		fmt.Fprintf(&b, "High risk (%d/10): do not proceed.", result.RiskScore)
	case models.RecommendationVerify:
		fmt.Fprintf(&b, "Some risk (%d/10): verify before you act.", result.RiskScore)
	default:
		fmt.Fprintf(&b, "Low risk (%d/10).", result.RiskScore)
	}
	if len(reasons) > 0 {
		b.WriteString(" Reasons: " + strings.Join(reasons, "; ") + ".")
	}

	switch result.Recommendation {
	case models.RecommendationBlock:
		b.WriteString(" अधिक जोखिम: आगे न बढ़ें, परिवार से बात करें।")
	case models.RecommendationVerify:
		b.WriteString(" कुछ जोखिम है: आगे बढ़ने से पहले जांच लें।")
	default:
		b.WriteString(" कम जोखिम।")
	}
	return b.String()
}
