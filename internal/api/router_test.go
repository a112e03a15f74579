package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/api/handlers"
	"dhankavach/internal/config"
	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/infrastructure/cache"
	"dhankavach/internal/infrastructure/graph"
	"dhankavach/internal/metrics"
	"dhankavach/pkg/logger"
)

const (
	testAPIKey = "test-key"
	loanOffer  = "Golden Finance Loan Offer! Get instant loan at 0% interest. No documentation required. " +
		"Pay processing fee of Rs 2,000 upfront. Contact 8765432109 or pay to goldenloan@ybl."
)

type fakeFinder struct {
	related []graph.RelatedEntity
	err     error
}

func (f fakeFinder) RelatedEntities(_ context.Context, _ string, _ int) ([]graph.RelatedEntity, error) {
	return f.related, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, mutate func(*config.Config, *handlers.Dependencies)) *testServer {
	t.Helper()
	log := logger.NewNop()

	o, err := orchestrator.New(orchestrator.Options{Store: riskprofile.NewMemoryStore(), Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close(context.Background()) })

	cfg := config.Config{}
	cfg.Server.APIKey = testAPIKey
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.Metrics.Path = "/metrics"

	deps := handlers.Dependencies{Orchestrator: o, Version: "test", Logger: log}
	if mutate != nil {
		mutate(&cfg, &deps)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg, o.CorrelationStats)
	require.NoError(t, err)

	router := NewRouter(cfg, handlers.NewHandlers(deps), Options{
		Limiter:  cache.NewLocalRateLimiter(),
		Metrics:  metrics.Handler(reg),
		Recorder: collector,
	}, log)
	return &testServer{handler: router.Setup(), registry: reg}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	srv = newTestServer(t, func(_ *config.Config, d *handlers.Dependencies) {
		d.Checks = map[string]handlers.Pinger{"redis": failingPinger{}}
	})
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestAPIKeyIsRequired(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tips", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tips", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tips", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentThenConnectedPaymentThenApproval(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/analyze", handlers.AnalyzeRequest{ProfileID: "household-1", Text: loanOffer})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[orchestrator.Response](t, rec)
	assert.Equal(t, models.VerdictFraudulent, doc.Result.Verdict)

	rec = srv.do(t, http.MethodPost, "/api/v1/transactions/check", map[string]any{
		"profile_id": "household-1",
		"recipient":  "8765432109",
		"amount":     "2999",
		"purpose":    "loan processing fee",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pay := decode[orchestrator.Response](t, rec)
	assert.True(t, pay.Result.IsConnected)
	assert.Equal(t, 10, pay.Result.RiskScore)
	assert.Equal(t, models.RecommendationBlock, pay.Result.Recommendation)
	require.NotNil(t, pay.Approval)

	rec = srv.do(t, http.MethodGet, "/api/v1/approvals/"+pay.Approval.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ApprovalPending, decode[models.FamilyApprovalRequest](t, rec).Status)

	rec = srv.do(t, http.MethodPost, "/api/v1/approvals/"+pay.Approval.ID+"/resolve",
		handlers.ResolveRequest{Decision: "deny", ResolvedBy: "beti"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ApprovalDenied, decode[models.FamilyApprovalRequest](t, rec).Status)

	rec = srv.do(t, http.MethodPost, "/api/v1/approvals/"+pay.Approval.ID+"/resolve",
		handlers.ResolveRequest{Decision: "approve", ResolvedBy: "beta"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/profiles/household-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[riskprofile.Summary](t, rec)
	assert.Equal(t, 10, summary.HighestRiskScore)

	rec = srv.do(t, http.MethodGet, "/api/v1/profiles/household-1/entities/+91%2087654%2032109", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "8765432109", decode[models.FlaggedEntity](t, rec).ID)
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown field", http.MethodPost, "/api/v1/analyze", map[string]any{"profile_id": "h", "bogus": 1}, http.StatusBadRequest},
		{"missing profile", http.MethodPost, "/api/v1/analyze", handlers.AnalyzeRequest{Text: "hello"}, http.StatusBadRequest},
		{"unknown agent", http.MethodPost, "/api/v1/analyze", handlers.AnalyzeRequest{ProfileID: "h", Text: "x", Agent: "oracle"}, http.StatusBadRequest},
		{"bad attachment", http.MethodPost, "/api/v1/analyze", handlers.AnalyzeRequest{ProfileID: "h", Attachments: []string{"%%%"}}, http.StatusBadRequest},
		{"missing recipient", http.MethodPost, "/api/v1/transactions/check", map[string]any{"profile_id": "h", "amount": "10"}, http.StatusBadRequest},
		{"unknown approval", http.MethodGet, "/api/v1/approvals/nope", nil, http.StatusNotFound},
		{"bad decision", http.MethodPost, "/api/v1/approvals/nope/resolve", handlers.ResolveRequest{Decision: "maybe"}, http.StatusBadRequest},
		{"unknown entity", http.MethodGet, "/api/v1/profiles/h/entities/9999999999", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[handlers.ErrorResponse](t, rec).Error)
		})
	}
}

func TestAnalyzeAcceptsBase64Attachments(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodPost, "/api/v1/analyze", handlers.AnalyzeRequest{
		ProfileID:   "household-1",
		Text:        "please check the attached letter",
		Attachments: []string{base64.StdEncoding.EncodeToString([]byte(loanOffer))},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orchestrator.AgentDocument, decode[orchestrator.Response](t, rec).Agent)
}

func TestTips(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/tips?topic=upi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tips := decode[orchestrator.Tips](t, rec)
	assert.Equal(t, orchestrator.TopicUPI, tips.Topic)
	assert.NotEmpty(t, tips.English)
	assert.NotEmpty(t, tips.Hindi)

	rec = srv.do(t, http.MethodGet, "/api/v1/tips?q=someone+asked+for+my+otp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orchestrator.TopicOTP, decode[orchestrator.Tips](t, rec).Topic)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config, _ *handlers.Dependencies) {
		c.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	})

	for range 2 {
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/v1/tips", nil).Code)
	}
	rec := srv.do(t, http.MethodGet, "/api/v1/tips", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestGraphRouteMountedOnlyWithFinder(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/graph/entities/x/related", nil).Code)

	srv = newTestServer(t, func(_ *config.Config, d *handlers.Dependencies) {
		d.Graph = fakeFinder{related: []graph.RelatedEntity{{ID: "goldenloan@ybl", Kind: models.EntityKindUPI}}}
	})
	rec := srv.do(t, http.MethodGet, "/api/v1/graph/entities/8765432109/related", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goldenloan@ybl")

	srv = newTestServer(t, func(_ *config.Config, d *handlers.Dependencies) {
		d.Graph = fakeFinder{err: errors.New("neo4j down")}
	})
	assert.Equal(t, http.StatusBadGateway, srv.do(t, http.MethodGet, "/api/v1/graph/entities/x/related", nil).Code)
}

func TestMetricsEndpointCountsRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodGet, "/api/v1/tips", nil)

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `dhankavach_http_requests_total{code="200",method="GET",route="/api/v1/tips"} 1`), body)
}
