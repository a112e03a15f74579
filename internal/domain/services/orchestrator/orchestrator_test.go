package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/approval"
	"dhankavach/internal/domain/services/correlation"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/domain/services/scoring"
	"dhankavach/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitor lives until the cache is garbage collected
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

const loanOffer = "Golden Finance Loan Offer! Get instant loan at 0% interest. No documentation required. " +
	"Pay processing fee of Rs 2,000 upfront. Contact 8765432109 or pay to goldenloan@ybl."

type recordingAlerter struct {
	mu    sync.Mutex
	calls []models.FamilyApprovalRequest
	err   error
	block bool
}

func (a *recordingAlerter) Notify(ctx context.Context, req *models.FamilyApprovalRequest) error {
	a.mu.Lock()
	a.calls = append(a.calls, *req)
	a.mu.Unlock()
	if a.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return a.err
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type recordingSink struct {
	mu        sync.Mutex
	flagged   []models.FlaggedEntity
	approvals []models.ApprovalStatus
}

func (s *recordingSink) PublishEntityFlagged(_ context.Context, _ string, e models.FlaggedEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagged = append(s.flagged, e)
	return nil
}

func (s *recordingSink) PublishApproval(_ context.Context, req *models.FamilyApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals = append(s.approvals, req.Status)
	return nil
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, string, models.FlaggedEntity) (models.FlaggedEntity, error) {
	return models.FlaggedEntity{}, errors.New("database is locked")
}
func (brokenStore) Lookup(context.Context, string, []string) ([]models.FlaggedEntity, error) {
	return nil, errors.New("database is locked")
}
func (brokenStore) List(context.Context, string) ([]models.FlaggedEntity, error) {
	return nil, errors.New("database is locked")
}

func newOrchestrator(t *testing.T, store riskprofile.Store, opts Options) *Orchestrator {
	t.Helper()
	log := logger.NewNop()
	opts.Store = store
	opts.Logger = log
	if opts.Transactions == nil {
		opts.Transactions = scoring.NewTransactionScorer(scoring.TransactionConfig{
			HighAmountThreshold: decimal.NewFromInt(10000),
			FamilyAllowlist:     []string{"9812345678"},
			FamilyRelationTerms: []string{"beti", "maa"},
		}, log)
	}
	if opts.AsyncTimeout == 0 {
		opts.AsyncTimeout = time.Second
	}
	o, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.Close(ctx)
	})
	return o
}

func closeNow(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Close(ctx))
}

func persistedIDs(resp *Response) []string {
	var ids []string
	for _, e := range resp.Persisted {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestDocumentThenConnectedTransaction(t *testing.T) {
	ctx := context.Background()
	store := riskprofile.NewMemoryStore()
	alerter := &recordingAlerter{}
	sink := &recordingSink{}
	o := newOrchestrator(t, store, Options{Alerter: alerter, Events: []EventSink{sink}})

	doc, err := o.Analyze(ctx, Request{ProfileID: "household-1", Text: loanOffer})
	require.NoError(t, err)
	assert.Equal(t, AgentDocument, doc.Agent)
	assert.Equal(t, models.VerdictFraudulent, doc.Result.Verdict)
	assert.GreaterOrEqual(t, doc.Result.RiskScore, 8)
	assert.False(t, doc.Result.IsConnected)
	assert.Subset(t, persistedIDs(doc), []string{"8765432109", "goldenloan@ybl", "processing fee"})
	assert.Nil(t, doc.Approval)

	pay, err := o.CheckTransaction(ctx, "household-1", models.TransactionRequest{
		Recipient: "+91 87654 32109",
		Amount:    decimal.NewFromInt(2999),
		Currency:  "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, AgentTransaction, pay.Agent)
	assert.True(t, pay.Result.IsConnected)
	assert.Equal(t, 10, pay.Result.RiskScore)
	assert.Equal(t, models.VerdictCritical, pay.Result.Verdict)
	assert.Equal(t, models.RecommendationBlock, pay.Result.Recommendation)
	require.Len(t, pay.Result.ConnectedMatches, 1)
	assert.Equal(t, models.EntitySourceDocument, pay.Result.ConnectedMatches[0].Source)

	require.NotNil(t, pay.Approval)
	assert.Equal(t, models.ApprovalPending, pay.Approval.Status)
	assert.Equal(t, pay.Transaction.Ref, pay.Approval.TransactionRef)
	assert.Contains(t, pay.Approval.Reasons, correlation.LabelConnectedMatch)

	closeNow(t, o)
	assert.Equal(t, 1, alerter.count())
	sink.mu.Lock()
	assert.Len(t, sink.flagged, len(doc.Persisted)+len(pay.Persisted))
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalPending}, sink.approvals)
	sink.mu.Unlock()

	entity, err := o.ProfileEntity(ctx, "household-1", "+91-87654-32109")
	require.NoError(t, err)
	assert.Equal(t, 10, entity.RiskScore)
	assert.Len(t, entity.Notes, 2)
}

func TestFreeTextPaymentIsRoutedAndParsed(t *testing.T) {
	ctx := context.Background()
	store := riskprofile.NewMemoryStore()
	_, err := riskprofile.Open(store, "household-1").Put(ctx, models.FlaggedEntity{
		ID: "8765432109", Kind: models.EntityKindPhone, RiskScore: 9, Source: models.EntitySourceMessage,
	})
	require.NoError(t, err)
	o := newOrchestrator(t, store, Options{})

	resp, err := o.Analyze(ctx, Request{ProfileID: "household-1", Text: "I want to send Rs 2,999 to 8765432109"})
	require.NoError(t, err)
	assert.Equal(t, AgentTransaction, resp.Agent)
	require.NotNil(t, resp.Transaction)
	assert.True(t, decimal.NewFromInt(2999).Equal(resp.Transaction.Amount))
	assert.Equal(t, 10, resp.Result.RiskScore)
	assert.Equal(t, models.RecommendationBlock, resp.Result.Recommendation)
	assert.NotNil(t, resp.Approval)
}

func TestStoreFailureIsUnknownNotSafe(t *testing.T) {
	o := newOrchestrator(t, brokenStore{}, Options{})

	resp, err := o.Analyze(context.Background(), Request{
		ProfileID: "household-1",
		Text:      "Call me back on 9876500001",
		Agent:     AgentScam,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CorrelationUnknown, resp.Result.CorrelationStatus)
	assert.NotEqual(t, models.VerdictSafe, resp.Result.Verdict)
	assert.Equal(t, models.RecommendationVerify, resp.Result.Recommendation)
	assert.False(t, resp.Result.IsConnected)
	assert.Empty(t, resp.Persisted)
	assert.Equal(t, int64(1), o.CorrelationStats().LookupFailures)
}

func TestPersistFailureDoesNotFailTheRequest(t *testing.T) {
	o := newOrchestrator(t, brokenStore{}, Options{})

	resp, err := o.Analyze(context.Background(), Request{ProfileID: "household-1", Text: loanOffer, Agent: AgentDocument})
	require.NoError(t, err)
	assert.Equal(t, models.VerdictFraudulent, resp.Result.Verdict)
	assert.Empty(t, resp.Persisted)
}

func TestFailingAlerterDoesNotChangeVerdict(t *testing.T) {
	ctx := context.Background()
	tx := models.TransactionRequest{Recipient: "8765432109", Amount: decimal.NewFromInt(2999), Purpose: "processing fee"}

	quiet := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})
	want, err := quiet.CheckTransaction(ctx, "household-1", tx)
	require.NoError(t, err)

	for name, alerter := range map[string]*recordingAlerter{
		"error":   {err: errors.New("telegram: 502 bad gateway")},
		"timeout": {block: true},
	} {
		t.Run(name, func(t *testing.T) {
			o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{
				Alerter:      alerter,
				AsyncTimeout: 50 * time.Millisecond,
			})

			got, err := o.CheckTransaction(ctx, "household-1", tx)
			require.NoError(t, err)
			assert.Equal(t, want.Result.RiskScore, got.Result.RiskScore)
			assert.Equal(t, want.Result.Verdict, got.Result.Verdict)
			assert.Equal(t, want.Result.Recommendation, got.Result.Recommendation)
			require.NotNil(t, got.Approval)

			closeNow(t, o)
			assert.Equal(t, 1, alerter.count())
		})
	}
}

func TestFamilyPaymentIsSafeAndNotRemembered(t *testing.T) {
	ctx := context.Background()
	store := riskprofile.NewMemoryStore()
	o := newOrchestrator(t, store, Options{})

	resp, err := o.CheckTransaction(ctx, "household-1", models.TransactionRequest{
		Recipient: "98123 45678",
		Amount:    decimal.NewFromInt(20000),
	})
	require.NoError(t, err)
	assert.Equal(t, models.VerdictSafe, resp.Result.Verdict)
	assert.Nil(t, resp.Approval)
	assert.Empty(t, resp.Persisted)

	summary, err := o.ProfileSummary(ctx, "household-1")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalEntities)
}

func TestAllowlistedNumberInDocumentIsNotFlagged(t *testing.T) {
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})

	text := "Golden Finance Loan Offer at 0% interest. No documentation required. " +
		"Pay processing fee upfront. Ask my son on 9812345678 or pay goldenloan@ybl."
	resp, err := o.Analyze(context.Background(), Request{ProfileID: "household-1", Text: text, Agent: AgentDocument})
	require.NoError(t, err)
	assert.Contains(t, persistedIDs(resp), "goldenloan@ybl")
	assert.NotContains(t, persistedIDs(resp), "9812345678")
}

func TestCommunityProfileIsConsulted(t *testing.T) {
	ctx := context.Background()
	store := riskprofile.NewMemoryStore()
	_, err := riskprofile.SeedCommunity(ctx, store, "community")
	require.NoError(t, err)

	o := newOrchestrator(t, store, Options{
		Engine: correlation.NewEngine(riskprofile.Open(store, "community"), logger.NewNop()),
	})

	resp, err := o.CheckTransaction(ctx, "new-household", models.TransactionRequest{
		Recipient: "9988776655",
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, resp.Result.IsConnected)
	assert.Equal(t, models.VerdictCritical, resp.Result.Verdict)
}

func TestCommunityProfileIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store := riskprofile.NewMemoryStore()
	o := newOrchestrator(t, store, Options{
		Engine:             correlation.NewEngine(riskprofile.Open(store, "community"), logger.NewNop()),
		CommunityProfileID: "community",
	})

	_, err := o.Analyze(ctx, Request{ProfileID: "community", Text: "Loan at 0% interest, pay processing fee to 9123456780", Agent: AgentDocument})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = o.CheckTransaction(ctx, " community ", models.TransactionRequest{Recipient: "9123456780", Amount: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	resp, err := o.CheckTransaction(ctx, "victim-household", models.TransactionRequest{
		Recipient: "9123456780",
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.False(t, resp.Result.IsConnected)
	assert.NotEqual(t, models.VerdictCritical, resp.Result.Verdict)
}

func TestFlaggedLinkIsConnectedWhenSeenAgain(t *testing.T) {
	ctx := context.Background()
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})

	first, err := o.Analyze(ctx, Request{
		ProfileID: "household-1",
		Text:      "URGENT: Your SBI account will be blocked today. Update KYC at http://www.www.sbi-kyc-update.xyz/login",
		Agent:     AgentScam,
	})
	require.NoError(t, err)
	require.Contains(t, persistedIDs(first), "sbi-kyc-update.xyz/login")

	again, err := o.Analyze(ctx, Request{
		ProfileID: "household-1",
		Text:      "Is this the SBI site? http://www.www.sbi-kyc-update.xyz/login",
		Agent:     AgentScam,
	})
	require.NoError(t, err)
	assert.True(t, again.Result.IsConnected)
	require.Len(t, again.Result.ConnectedMatches, 1)
	assert.Equal(t, "sbi-kyc-update.xyz/login", again.Result.ConnectedMatches[0].ID)
}

func TestCallerTransactionIsNotModified(t *testing.T) {
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})

	tx := &models.TransactionRequest{Recipient: "8765400001", Amount: decimal.NewFromInt(500)}
	resp, err := o.Analyze(context.Background(), Request{ProfileID: "household-1", Transaction: tx, Agent: AgentTransaction})
	require.NoError(t, err)
	assert.Empty(t, tx.Ref)
	require.NotNil(t, resp.Transaction)
	assert.Equal(t, resp.ID, resp.Transaction.Ref)
}

func TestAdvisorReturnsTips(t *testing.T) {
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})

	resp, err := o.Analyze(context.Background(), Request{ProfileID: "household-1", Text: "How do I stay safe with UPI payments?"})
	require.NoError(t, err)
	assert.Equal(t, AgentAdvisor, resp.Agent)
	assert.Equal(t, models.VerdictSafe, resp.Result.Verdict)
	assert.Equal(t, models.CorrelationSkipped, resp.Result.CorrelationStatus)
	require.NotNil(t, resp.Tips)
	assert.Equal(t, TopicUPI, resp.Tips.Topic)
	assert.Len(t, resp.Tips.Hindi, len(resp.Tips.English))
}

func TestResolveApprovalOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{
		Approvals: approval.NewMemoryStore(time.Hour),
		Events:    []EventSink{sink},
	})

	resp, err := o.CheckTransaction(ctx, "household-1", models.TransactionRequest{
		Recipient: "8765432109", Amount: decimal.NewFromInt(2999), Purpose: "processing fee",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Approval)

	got, err := o.ResolveApproval(ctx, resp.Approval.ID, false, "beti")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDenied, got.Status)
	assert.Equal(t, "beti", got.ResolvedBy)

	_, err = o.ResolveApproval(ctx, resp.Approval.ID, true, "beta")
	require.ErrorIs(t, err, models.ErrApprovalResolved)

	stored, err := o.GetApproval(ctx, resp.Approval.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDenied, stored.Status)

	_, err = o.ResolveApproval(ctx, "missing", true, "beta")
	require.ErrorIs(t, err, models.ErrNotFound)

	closeNow(t, o)
	sink.mu.Lock()
	assert.ElementsMatch(t, []models.ApprovalStatus{models.ApprovalPending, models.ApprovalDenied}, sink.approvals)
	sink.mu.Unlock()
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{})
	ctx := context.Background()

	_, err := o.Analyze(ctx, Request{Text: "hello"})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = o.CheckTransaction(ctx, "household-1", models.TransactionRequest{Amount: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = o.Analyze(ctx, Request{ProfileID: "household-1", Text: "hello", Agent: "oracle"})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = New(Options{})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestClosedOrchestratorDropsDeliveries(t *testing.T) {
	alerter := &recordingAlerter{}
	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{Alerter: alerter})
	closeNow(t, o)

	resp, err := o.CheckTransaction(context.Background(), "household-1", models.TransactionRequest{
		Recipient: "8765432109", Amount: decimal.NewFromInt(2999), Purpose: "processing fee",
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.Approval)
	assert.Zero(t, alerter.count())
}

type stubNarrator struct {
	text string
	err  error
}

func (n stubNarrator) Narrate(context.Context, models.AnalysisResult) (string, error) {
	return n.text, n.err
}

func TestNarrationFallsBackToTemplate(t *testing.T) {
	ctx := context.Background()
	req := Request{ProfileID: "household-1", Text: loanOffer, Agent: AgentDocument, Narrate: true}

	o := newOrchestrator(t, riskprofile.NewMemoryStore(), Options{Narrator: stubNarrator{text: "model says no"}})
	resp, err := o.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "model says no", resp.Explanation)

	o = newOrchestrator(t, riskprofile.NewMemoryStore(), Options{Narrator: stubNarrator{err: errors.New("ollama down")}})
	resp, err = o.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, resp.Explanation, "do not proceed")
	assert.Contains(t, resp.Explanation, "no regulator registration")
}
