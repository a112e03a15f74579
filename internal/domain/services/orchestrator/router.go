package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/extract"
	"dhankavach/pkg/logger"
)

// AgentKind is the analysis path a request is dispatched to
type AgentKind string

const (
	AgentDocument    AgentKind = "document_analyzer"
	AgentScam        AgentKind = "scam_detector"
	AgentTransaction AgentKind = "transaction_safety"
	AgentAdvisor     AgentKind = "advisor"
)

// Valid reports whether k names a known agent
func (k AgentKind) Valid() bool {
	switch k {
	case AgentDocument, AgentScam, AgentTransaction, AgentAdvisor:
		return true
	}
	return false
}

// Input is what the router sees of a request
type Input struct {
	Text        string
	Attachments [][]byte
	Transaction *models.TransactionRequest
	Entities    []models.Entity // pre-extracted; extracted from Text when nil
}

var (
	transferVerbRegex = regexp.MustCompile(`(?i)\b(?:send|sending|transfer|transferring|pay|paying|remit|wire)\b`)
	transferVerbsHI   = []string{"भेज", "ट्रांसफर", "भुगतान", "पैसे डाल"}
	amountRegex       = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s?(\d[\d,]*(?:\.\d{1,2})?)|(\d[\d,]*(?:\.\d{1,2})?)\s?(?:rupees|rs\b|रुपये|रुपए)`)
	payerIntentRegex  = regexp.MustCompile(`(?i)\b(?:i want to|i need to|i have to|should i|can i|i am sending|i'm sending|i will (?:send|pay|transfer)|want to (?:send|pay|transfer)|mujhe|karna hai)\b`)
	payerIntentHI     = []string{"मुझे", "मैं", "करना है", "भेजना है"}

	documentMarkers = []string{
		"loan offer", "offer letter", "sanction letter", "agreement", "terms and conditions",
		"interest rate", "% interest", "emi", "tenure", "processing fee", "policy", "premium",
		"certificate", "documentation", "invoice", "loan amount", "dear applicant", "annexure",
		"लोन", "ब्याज", "दस्तावेज", "पॉलिसी", "अनुबंध",
	}
	messageMarkers = []string{
		"forwarded", "fwd:", "fw:", "dear customer", "dear user", "click", "link", "sms", "whatsapp",
		"otp", "kyc", "account will be", "congratulations", "you have won",
		"प्रिय ग्राहक", "ओटीपी", "केवाईसी", "बधाई",
	}
)

const longFormalText = 600

// Route classifies an input with the built-in rules. Ambiguous input goes to
// the advisor, which never alarms the user.
func Route(in Input) AgentKind {
	if in.Transaction != nil {
		return AgentTransaction
	}
	if len(in.Attachments) > 0 {
		return AgentDocument
	}

	text := extract.FoldText(in.Text)
	if strings.TrimSpace(text) == "" {
		return AgentAdvisor
	}

	entities := in.Entities
	if entities == nil {
		entities = extract.NewExtractor(logger.NewNop()).Extract(in.Text, nil)
	}

	if extract.CountPhrases(text, documentMarkers) >= 2 || (len(text) >= longFormalText && strings.Count(text, "\n") >= 5) {
		return AgentDocument
	}

	_, hasRecipient := firstRecipient(entities)
	messageLike := extract.CountPhrases(text, messageMarkers) > 0
	if hasRecipient && hasTransferVerb(text) {
		// the payer speaking in first person, or a bare "send 500 to x" that
		// does not read like a forwarded message
		if hasPayerIntent(text) || (amountRegex.MatchString(text) && !messageLike) {
			return AgentTransaction
		}
	}

	if messageLike || hasKind(entities, models.EntityKindURL) || hasRecipient {
		return AgentScam
	}
	return AgentAdvisor
}

// IntentClassifier is the model-backed classifier; the rules are its fallback
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (string, error)
}

// Router prefers the model classifier for free text and falls back to Route
type Router struct {
	classifier IntentClassifier
	timeout    time.Duration
	logger     *logger.Logger
}

// NewRouter creates a router. classifier may be nil.
func NewRouter(classifier IntentClassifier, timeout time.Duration, log *logger.Logger) *Router {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Router{classifier: classifier, timeout: timeout, logger: log.WithComponent("router")}
}

// Route picks the agent for in
func (r *Router) Route(ctx context.Context, in Input) AgentKind {
	if in.Transaction != nil || len(in.Attachments) > 0 || r.classifier == nil || strings.TrimSpace(in.Text) == "" {
		return Route(in)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	got, err := r.classifier.ClassifyIntent(ctx, in.Text)
	if err != nil {
		r.logger.Warn().Err(err).Msg("intent classifier failed, using rules")
		return Route(in)
	}
	agent := AgentKind(got)
	if !agent.Valid() {
		r.logger.Warn().Str("agent", got).Msg("classifier returned unknown agent, using rules")
		return Route(in)
	}
	return agent
}

// ParseTransactionIntent builds a payment intent from free text such as
// "send Rs 2,999 to 8765432109 for processing fee"
func ParseTransactionIntent(text string, entities []models.Entity) (models.TransactionRequest, bool) {
	recipient, ok := firstRecipient(entities)
	if !ok {
		return models.TransactionRequest{}, false
	}
	tx := models.TransactionRequest{
		Recipient: recipient.ID,
		Currency:  "INR",
		Purpose:   text,
	}
	if m := amountRegex.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if amount, err := parseAmount(raw); err == nil {
			tx.Amount = amount
		}
	}
	return tx, true
}

func firstRecipient(entities []models.Entity) (models.Entity, bool) {
	for _, e := range entities {
		if e.Kind == models.EntityKindPhone || e.Kind == models.EntityKindUPI {
			return e, true
		}
	}
	return models.Entity{}, false
}

func hasKind(entities []models.Entity, kind models.EntityKind) bool {
	for _, e := range entities {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func hasTransferVerb(text string) bool {
	if transferVerbRegex.MatchString(text) {
		return true
	}
	return extract.CountPhrases(text, transferVerbsHI) > 0
}

func hasPayerIntent(text string) bool {
	return payerIntentRegex.MatchString(text) || extract.CountPhrases(text, payerIntentHI) > 0
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
}
