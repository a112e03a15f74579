package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want AgentKind
	}{
		{"transaction payload", Input{Text: "rent", Transaction: &models.TransactionRequest{Recipient: "x@okaxis"}}, AgentTransaction},
		{"attachment", Input{Attachments: [][]byte{[]byte("%PDF-1.4")}}, AgentDocument},
		{"empty", Input{Text: "   "}, AgentAdvisor},
		{"loan document", Input{Text: loanOffer}, AgentDocument},
		{"payer intent", Input{Text: "I want to send Rs 500 to 9876500001"}, AgentTransaction},
		{"bare transfer", Input{Text: "transfer ₹1,500 to goldenloan@ybl"}, AgentTransaction},
		{"hindi payer", Input{Text: "मुझे 9876500001 पर 500 रुपये भेजना है"}, AgentTransaction},
		{"forwarded demand", Input{Text: "Dear customer, send Rs 10 to 9876500001 to keep your account active"}, AgentScam},
		{"kyc phish", Input{Text: "Your KYC expires today, update at http://sbi-kyc.xyz/update"}, AgentScam},
		{"unknown caller", Input{Text: "who is 9876500001?"}, AgentScam},
		{"question", Input{Text: "what is a mutual fund?"}, AgentAdvisor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.in))
		})
	}
}

type fakeClassifier struct {
	agent string
	err   error
}

func (f fakeClassifier) ClassifyIntent(context.Context, string) (string, error) {
	return f.agent, f.err
}

func TestRouterPrefersClassifierAndFallsBack(t *testing.T) {
	ctx := context.Background()
	text := "what is a mutual fund?"

	r := NewRouter(fakeClassifier{agent: "scam_detector"}, time.Second, logger.NewNop())
	assert.Equal(t, AgentScam, r.Route(ctx, Input{Text: text}))

	r = NewRouter(fakeClassifier{err: errors.New("connection refused")}, time.Second, logger.NewNop())
	assert.Equal(t, AgentAdvisor, r.Route(ctx, Input{Text: text}))

	r = NewRouter(fakeClassifier{agent: "stock_picker"}, time.Second, logger.NewNop())
	assert.Equal(t, AgentAdvisor, r.Route(ctx, Input{Text: text}))

	// structured payloads never reach the model
	r = NewRouter(fakeClassifier{agent: "advisor"}, time.Second, logger.NewNop())
	assert.Equal(t, AgentTransaction, r.Route(ctx, Input{Transaction: &models.TransactionRequest{Recipient: "9876500001"}}))
}

func TestParseTransactionIntent(t *testing.T) {
	text := "send Rs 2,999 to 8765432109 for processing fee"
	entities := []models.Entity{{ID: "8765432109", Kind: models.EntityKindPhone}}

	tx, ok := ParseTransactionIntent(text, entities)
	require.True(t, ok)
	assert.Equal(t, "8765432109", tx.Recipient)
	assert.True(t, decimal.NewFromInt(2999).Equal(tx.Amount))
	assert.Equal(t, "INR", tx.Currency)

	tx, ok = ParseTransactionIntent("pay 250.50 rupees to shop@okhdfc", []models.Entity{{ID: "shop@okhdfc", Kind: models.EntityKindUPI}})
	require.True(t, ok)
	assert.Equal(t, "250.5", tx.Amount.String())

	_, ok = ParseTransactionIntent("send money", nil)
	assert.False(t, ok)
}

func TestTips(t *testing.T) {
	assert.Equal(t, TopicOTP, TipsFor("PIN").Topic)
	assert.Equal(t, TopicKYC, TipsFor(" aadhaar ").Topic)
	assert.Equal(t, TopicScams, TipsFor("crypto").Topic)

	for topic := range tipsByTopic {
		tips := TipsFor(topic)
		assert.Len(t, tips.English, 5, topic)
		assert.Len(t, tips.Hindi, 5, topic)
	}

	tips := TipsFor(TopicUPI)
	tips.English[0] = "mutated"
	assert.NotEqual(t, "mutated", TipsFor(TopicUPI).English[0])
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, TopicOTP, TopicFor("Someone asked for my OTP"))
	assert.Equal(t, TopicLoans, TopicFor("is this loan app real?"))
	assert.Equal(t, TopicLoans, TopicFor("क्या यह लोन सही है?"))
	assert.Equal(t, TopicScams, TopicFor("hello"))
}

func TestExplain(t *testing.T) {
	r := models.AnalysisResult{Kind: models.AnalysisKindTransaction, RiskScore: 10}
	r.AddSignal("connected_intelligence_match", 10, "")
	r.Finalize()

	out := Explain(r)
	assert.Contains(t, out, "High risk (10/10)")
	assert.Contains(t, out, "flagged in an earlier document")

	safe := models.AnalysisResult{Kind: models.AnalysisKindMessage}
	safe.Finalize()
	assert.Contains(t, Explain(safe), "Low risk (0/10)")
}
