// Package orchestrator routes a request to its analysis agent and combines the
// heuristic score with connected intelligence from the risk profile.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/approval"
	"dhankavach/internal/domain/services/correlation"
	"dhankavach/internal/domain/services/extract"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/domain/services/scoring"
	"dhankavach/pkg/logger"
)

// Alerter delivers an approval request to the family
type Alerter interface {
	Notify(ctx context.Context, req *models.FamilyApprovalRequest) error
}

// EventSink receives domain events after the response is decided
type EventSink interface {
	PublishEntityFlagged(ctx context.Context, profileID string, entity models.FlaggedEntity) error
	PublishApproval(ctx context.Context, req *models.FamilyApprovalRequest) error
}

// Narrator turns a result into a plain-language explanation
type Narrator interface {
	Narrate(ctx context.Context, result models.AnalysisResult) (string, error)
}

// Metrics records orchestrator outcomes
type Metrics interface {
	RecordAnalysis(agent, verdict string, connected bool, took time.Duration)
	RecordFlagged(kind string)
	RecordPersistFailure()
	RecordNotification(outcome string)
	RecordApproval(status string)
}

// Notification outcomes
const (
	NotifySent    = "sent"
	NotifyFailed  = "failed"
	NotifySkipped = "skipped"
)

const defaultAsyncTimeout = 10 * time.Second

// Options wires the orchestrator. Store is required; everything else has a default.
type Options struct {
	Store        riskprofile.Store
	Approvals    approval.Store
	Engine       *correlation.Engine
	Extractor    *extract.Extractor
	Documents    *scoring.DocumentScorer
	Messages     *scoring.MessageScorer
	Transactions *scoring.TransactionScorer
	Router       *Router
	Alerter      Alerter
	Events       []EventSink
	Narrator     Narrator
	Metrics      Metrics

	// CommunityProfileID is the shared profile every correlation reads. Requests
	// may not write into it; only seeding does.
	CommunityProfileID string
	// ApprovalScoreThreshold is the transaction score at which family approval is required
	ApprovalScoreThreshold int
	// AsyncTimeout bounds each notification and event delivery
	AsyncTimeout time.Duration
	Logger       *logger.Logger
}

// Orchestrator runs the analysis pipeline
type Orchestrator struct {
	store        riskprofile.Store
	approvals    approval.Store
	engine       *correlation.Engine
	extractor    *extract.Extractor
	documents    *scoring.DocumentScorer
	messages     *scoring.MessageScorer
	transactions *scoring.TransactionScorer
	router       *Router
	alerter      Alerter
	events       []EventSink
	narrator     Narrator
	metrics      Metrics

	communityID       string
	approvalThreshold int
	asyncTimeout      time.Duration
	logger            *logger.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates an orchestrator from opts
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: risk profile store is required", models.ErrInvalidInput)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	o := &Orchestrator{
		store:             opts.Store,
		approvals:         opts.Approvals,
		engine:            opts.Engine,
		extractor:         opts.Extractor,
		documents:         opts.Documents,
		messages:          opts.Messages,
		transactions:      opts.Transactions,
		router:            opts.Router,
		alerter:           opts.Alerter,
		events:            opts.Events,
		narrator:          opts.Narrator,
		metrics:           opts.Metrics,
		communityID:       opts.CommunityProfileID,
		approvalThreshold: opts.ApprovalScoreThreshold,
		asyncTimeout:      opts.AsyncTimeout,
		logger:            log.WithComponent("orchestrator"),
	}

	if o.approvals == nil {
		o.approvals = approval.NewMemoryStore(72 * time.Hour)
	}
	if o.engine == nil {
		o.engine = correlation.NewEngine(nil, log)
	}
	if o.extractor == nil {
		o.extractor = extract.NewExtractor(log)
	}
	if o.documents == nil {
		o.documents = scoring.NewDocumentScorer(log)
	}
	if o.messages == nil {
		o.messages = scoring.NewMessageScorer(log)
	}
	if o.transactions == nil {
		o.transactions = scoring.NewTransactionScorer(scoring.TransactionConfig{
			HighAmountThreshold: decimal.NewFromInt(10000),
		}, log)
	}
	if o.router == nil {
		o.router = NewRouter(nil, 0, log)
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	if o.approvalThreshold <= 0 {
		o.approvalThreshold = 5
	}
	if o.asyncTimeout <= 0 {
		o.asyncTimeout = defaultAsyncTimeout
	}

	return o, nil
}

// Request is one analysis request
type Request struct {
	ProfileID   string
	Text        string
	Attachments [][]byte
	Transaction *models.TransactionRequest
	// Agent forces a route; empty lets the router decide
	Agent   AgentKind
	Narrate bool
}

// Response is the combined verdict returned to the caller
type Response struct {
	ID          string                        `json:"id"`
	Agent       AgentKind                     `json:"agent"`
	Result      models.AnalysisResult         `json:"result"`
	Transaction *models.TransactionRequest    `json:"transaction,omitempty"`
	Approval    *models.FamilyApprovalRequest `json:"approval,omitempty"`
	Tips        *Tips                         `json:"tips,omitempty"`
	Explanation string                        `json:"explanation,omitempty"`
	Persisted   []models.FlaggedEntity        `json:"persisted,omitempty"`
}

// Analyze routes, scores and correlates req. Store, alerter and event failures
// degrade the response but never fail it; only invalid input returns an error.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if strings.TrimSpace(req.ProfileID) == "" {
		return nil, fmt.Errorf("%w: profile_id is required", models.ErrInvalidInput)
	}
	if o.communityID != "" && strings.TrimSpace(req.ProfileID) == o.communityID {
		return nil, fmt.Errorf("%w: profile %q is shared and read-only", models.ErrInvalidInput, o.communityID)
	}
	if req.Transaction != nil {
		if err := req.Transaction.Validate(); err != nil {
			return nil, err
		}
	}
	if req.Agent != "" && !req.Agent.Valid() {
		return nil, fmt.Errorf("%w: unknown agent %q", models.ErrInvalidInput, req.Agent)
	}

	log := o.logger.WithProfileID(req.ProfileID)
	resp := &Response{ID: uuid.New().String()}

	entities := o.extractor.Extract(req.Text, req.Attachments)
	if req.Transaction != nil {
		entities = transactionEntities(o.extractor, *req.Transaction, entities)
	}

	resp.Agent = req.Agent
	if resp.Agent == "" {
		resp.Agent = o.router.Route(ctx, Input{
			Text:        req.Text,
			Attachments: req.Attachments,
			Transaction: req.Transaction,
			Entities:    entities,
		})
	}

	var tx *models.TransactionRequest
	if resp.Agent == AgentTransaction {
		if req.Transaction != nil {
			copied := *req.Transaction
			tx = &copied
		} else if parsed, ok := ParseTransactionIntent(req.Text, entities); ok {
			tx = &parsed
		} else {
			// a model classifier can pick a payment route without a payee
			resp.Agent = AgentScam
		}
		if tx != nil && tx.Ref == "" {
			tx.Ref = resp.ID
		}
		resp.Transaction = tx
	}

	profile := riskprofile.Open(o.store, req.ProfileID)

	switch resp.Agent {
	case AgentDocument:
		resp.Result = o.documents.Score(ctx, req.Text, entities, profile)
	case AgentScam:
		resp.Result = o.messages.Score(ctx, req.Text, entities, profile)
	case AgentTransaction:
		resp.Result = o.transactions.Score(ctx, *tx, entities, profile)
	default:
		resp.Result = advisoryResult(entities)
		tips := TipsFor(TopicFor(req.Text))
		resp.Tips = &tips
	}

	if resp.Agent != AgentAdvisor {
		c := o.engine.Correlate(ctx, entities, profile)
		correlation.Apply(&resp.Result, c)
		if c.Err != nil {
			log.Warn().Err(c.Err).Str("status", string(c.Status)).Msg("correlation degraded")
		}

		if o.shouldPersist(resp.Agent, resp.Result, tx) {
			resp.Persisted = o.persist(ctx, log, profile, resp, tx)
		}
	}

	if resp.Agent == AgentTransaction && o.needsApproval(resp.Result) {
		resp.Approval = o.createApproval(ctx, log, req.ProfileID, tx.Ref, resp.Result)
	}

	if req.Narrate {
		resp.Explanation = o.explain(ctx, log, resp.Result)
	}

	o.metrics.RecordAnalysis(string(resp.Agent), string(resp.Result.Verdict), resp.Result.IsConnected, time.Since(start))

	log.Info().
		Str("agent", string(resp.Agent)).
		Int("score", resp.Result.RiskScore).
		Str("verdict", string(resp.Result.Verdict)).
		Bool("connected", resp.Result.IsConnected).
		Str("correlation", string(resp.Result.CorrelationStatus)).
		Dur("took", time.Since(start)).
		Msg("analysis complete")

	return resp, nil
}

// CheckTransaction runs the transaction agent on a structured payment intent
func (o *Orchestrator) CheckTransaction(ctx context.Context, profileID string, tx models.TransactionRequest) (*Response, error) {
	return o.Analyze(ctx, Request{
		ProfileID:   profileID,
		Text:        tx.Purpose,
		Transaction: &tx,
		Agent:       AgentTransaction,
	})
}

// ResolveApproval records a family member's decision. Only pending requests resolve.
func (o *Orchestrator) ResolveApproval(ctx context.Context, id string, approve bool, by string) (*models.FamilyApprovalRequest, error) {
	status := models.ApprovalDenied
	if approve {
		status = models.ApprovalApproved
	}

	req, err := o.approvals.Update(ctx, id, func(r *models.FamilyApprovalRequest) error {
		return r.Resolve(status, by, time.Now().UTC())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approval %s: %w", id, err)
	}

	o.metrics.RecordApproval(string(req.Status))
	o.logger.Info().
		Str("approval_id", req.ID).
		Str("status", string(req.Status)).
		Str("resolved_by", by).
		Msg("approval resolved")

	o.publishApproval(ctx, req)
	return req, nil
}

// GetApproval returns an approval request by id
func (o *Orchestrator) GetApproval(ctx context.Context, id string) (*models.FamilyApprovalRequest, error) {
	return o.approvals.Get(ctx, id)
}

// ProfileSummary returns the compact view of a risk profile
func (o *Orchestrator) ProfileSummary(ctx context.Context, profileID string) (*riskprofile.Summary, error) {
	return riskprofile.Summarize(ctx, riskprofile.Open(o.store, profileID))
}

// ProfileEntity looks up one flagged identifier in a profile. The id may be
// given in any of its raw formats.
func (o *Orchestrator) ProfileEntity(ctx context.Context, profileID, entityID string) (*models.FlaggedEntity, error) {
	var candidates []string
	seen := make(map[string]bool)
	for _, kind := range []models.EntityKind{
		models.EntityKindPhone, models.EntityKindUPI, models.EntityKindURL,
		models.EntityKindDocHash, models.EntityKindKeyword,
	} {
		id := extract.Normalize(kind, entityID)
		if id != "" && !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}

	found, err := riskprofile.Open(o.store, profileID).Lookup(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", entityID, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("entity %s: %w", entityID, models.ErrNotFound)
	}
	return &found[0], nil
}

// CorrelationStats exposes the engine counters
func (o *Orchestrator) CorrelationStats() correlation.Stats {
	return o.engine.GetStats()
}

// Close stops accepting background deliveries and waits for in-flight ones
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain background deliveries: %w", ctx.Err())
	}
}

// shouldPersist decides whether the identifiers of a result are recorded.
// Payments are only remembered when blocked, and never for a family payee.
func (o *Orchestrator) shouldPersist(agent AgentKind, result models.AnalysisResult, tx *models.TransactionRequest) bool {
	if !result.Flagged() {
		return false
	}
	if agent == AgentTransaction {
		return result.RiskScore >= models.HighRiskThreshold && !o.transactions.IsFamily(*tx)
	}
	return true
}

func (o *Orchestrator) persist(ctx context.Context, log *logger.Logger, profile *riskprofile.Profile, resp *Response, tx *models.TransactionRequest) []models.FlaggedEntity {
	source := sourceFor(resp.Agent)
	sourceRef := resp.ID
	if tx != nil {
		sourceRef = tx.Ref
	}
	note := persistNote(resp.Result)

	var candidates []models.FlaggedEntity
	for _, e := range resp.Result.Entities {
		if !e.Kind.Correlatable() || o.isAllowlisted(e) {
			continue
		}
		if e.Kind == models.EntityKindURL && extract.AnalyzeURL(e.ID).Official {
			continue
		}
		candidates = append(candidates, models.FlaggedEntity{
			ID:        e.ID,
			Kind:      e.Kind,
			RiskScore: resp.Result.RiskScore,
			Source:    source,
			SourceRef: sourceRef,
			Notes:     []string{note},
		})
	}
	if resp.Agent == AgentDocument {
		for _, phrase := range resp.Result.MatchedPhrases {
			candidates = append(candidates, models.FlaggedEntity{
				ID:        phrase,
				Kind:      models.EntityKindKeyword,
				RiskScore: resp.Result.RiskScore,
				Source:    source,
				SourceRef: sourceRef,
				Notes:     []string{note},
			})
		}
	}

	var stored []models.FlaggedEntity
	for _, c := range candidates {
		saved, err := profile.Put(ctx, c)
		if err != nil {
			o.metrics.RecordPersistFailure()
			log.Warn().Err(err).Str("entity", c.ID).Str("kind", string(c.Kind)).Msg("failed to persist flagged entity")
			continue
		}
		stored = append(stored, saved)
		o.metrics.RecordFlagged(string(saved.Kind))
		o.publishFlagged(ctx, profile.ID(), saved)
	}

	if len(stored) > 0 {
		log.Info().Int("entities", len(stored)).Str("source_ref", sourceRef).Msg("flagged entities recorded")
	}
	return stored
}

func (o *Orchestrator) isAllowlisted(e models.Entity) bool {
	if e.Kind != models.EntityKindPhone && e.Kind != models.EntityKindUPI {
		return false
	}
	return o.transactions.IsFamily(models.TransactionRequest{Recipient: e.ID})
}

func (o *Orchestrator) needsApproval(result models.AnalysisResult) bool {
	return result.RiskScore >= o.approvalThreshold || result.IsConnected
}

func (o *Orchestrator) createApproval(ctx context.Context, log *logger.Logger, profileID, txRef string, result models.AnalysisResult) *models.FamilyApprovalRequest {
	var reasons []string
	for _, s := range result.Signals {
		if s.Severity > 0 {
			reasons = append(reasons, s.Label)
		}
	}

	req := models.NewFamilyApprovalRequest(profileID, txRef, result.RiskScore, reasons)
	if err := o.approvals.Save(ctx, req); err != nil {
		// the caller still gets the gate; only remote resolution is lost
		log.Error().Err(err).Str("approval_id", req.ID).Msg("failed to save approval request")
	}
	o.metrics.RecordApproval(string(req.Status))

	log.Info().
		Str("approval_id", req.ID).
		Str("tx_ref", txRef).
		Int("score", req.RiskScore).
		Msg("family approval required")

	o.notify(ctx, req)
	o.publishApproval(ctx, req)
	return req
}

func (o *Orchestrator) explain(ctx context.Context, log *logger.Logger, result models.AnalysisResult) string {
	if o.narrator != nil {
		text, err := o.narrator.Narrate(ctx, result)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			log.Warn().Err(err).Msg("narration failed, using template")
		}
	}
	return Explain(result)
}

func (o *Orchestrator) notify(ctx context.Context, req *models.FamilyApprovalRequest) {
	if o.alerter == nil {
		o.metrics.RecordNotification(NotifySkipped)
		return
	}
	snapshot := *req
	o.background(ctx, "family alert", func(ctx context.Context) error {
		if err := o.alerter.Notify(ctx, &snapshot); err != nil {
			o.metrics.RecordNotification(NotifyFailed)
			return err
		}
		o.metrics.RecordNotification(NotifySent)
		return nil
	})
}

func (o *Orchestrator) publishFlagged(ctx context.Context, profileID string, entity models.FlaggedEntity) {
	for _, sink := range o.events {
		o.background(ctx, "entity flagged event", func(ctx context.Context) error {
			return sink.PublishEntityFlagged(ctx, profileID, entity)
		})
	}
}

func (o *Orchestrator) publishApproval(ctx context.Context, req *models.FamilyApprovalRequest) {
	snapshot := *req
	for _, sink := range o.events {
		o.background(ctx, "approval event", func(ctx context.Context) error {
			return sink.PublishApproval(ctx, &snapshot)
		})
	}
}

// background runs fn detached from the request's cancellation but bounded by
// the async timeout. Failures are only logged.
func (o *Orchestrator) background(ctx context.Context, what string, fn func(context.Context) error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.logger.Warn().Str("task", what).Msg("orchestrator closed, dropping delivery")
		return
	}
	o.inflight.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.asyncTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			level := o.logger.Warn()
			if errors.Is(err, context.DeadlineExceeded) {
				level = o.logger.Error()
			}
			level.Err(err).Str("task", what).Msg("background delivery failed")
		}
	}()
}

func advisoryResult(entities []models.Entity) models.AnalysisResult {
	result := models.AnalysisResult{
		Kind:              models.AnalysisKindAdvisory,
		Entities:          entities,
		Signals:           []models.Signal{},
		ConnectedMatches:  []models.FlaggedEntity{},
		CorrelationStatus: models.CorrelationSkipped,
		AnalyzedAt:        time.Now().UTC(),
	}
	result.Finalize()
	return result
}

// transactionEntities puts the payee first so it is the primary lookup id
func transactionEntities(ex *extract.Extractor, tx models.TransactionRequest, fromText []models.Entity) []models.Entity {
	var out []models.Entity
	seen := make(map[string]bool)
	add := func(e models.Entity) {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}

	if e, ok := extract.ParseRecipient(tx.Recipient); ok {
		add(e)
	}
	for _, e := range fromText {
		add(e)
	}
	for _, e := range ex.Extract(tx.Purpose, nil) {
		add(e)
	}
	return out
}

func sourceFor(agent AgentKind) models.EntitySource {
	switch agent {
	case AgentDocument:
		return models.EntitySourceDocument
	case AgentTransaction:
		return models.EntitySourceTransaction
	default:
		return models.EntitySourceMessage
	}
}

func persistNote(result models.AnalysisResult) string {
	var labels []string
	for _, s := range result.Signals {
		if s.Severity > 0 && s.Label != correlation.LabelConnectedMatch {
			labels = append(labels, s.Label)
		}
		if len(labels) == 3 {
			break
		}
	}
	note := fmt.Sprintf("%s %s at %d", result.Kind, strings.ToLower(string(result.Verdict)), result.RiskScore)
	if len(labels) > 0 {
		note += ": " + strings.Join(labels, ", ")
	}
	if result.IsConnected {
		note += " (connected)"
	}
	return note
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string, string, bool, time.Duration) {}
func (nopMetrics) RecordFlagged(string)                               {}
func (nopMetrics) RecordPersistFailure()                              {}
func (nopMetrics) RecordNotification(string)                          {}
func (nopMetrics) RecordApproval(string)                              {}
