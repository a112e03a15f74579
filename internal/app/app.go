// Package app wires DhanKavach from configuration. Both the HTTP server and
// the CLI build their components here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"dhankavach/internal/api"
	"dhankavach/internal/api/handlers"
	apimiddleware "dhankavach/internal/api/middleware"
	"dhankavach/internal/config"
	"dhankavach/internal/domain/services/approval"
	"dhankavach/internal/domain/services/correlation"
	"dhankavach/internal/domain/services/llm"
	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/domain/services/scoring"
	"dhankavach/internal/infrastructure/cache"
	"dhankavach/internal/infrastructure/database"
	"dhankavach/internal/infrastructure/database/repository"
	"dhankavach/internal/infrastructure/graph"
	"dhankavach/internal/metrics"
	"dhankavach/internal/notify"
	"dhankavach/internal/streaming"
	"dhankavach/pkg/logger"
)

// App holds the wired components and what must be closed on shutdown
type App struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Store        riskprofile.Store

	logger   *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	limiter  apimiddleware.RateLimitStore
	bus      *streaming.EventBus
	hub      *streaming.WebSocketHub
	graph    *graph.Repository
	checks   map[string]handlers.Pinger
	closers  []func(context.Context) error
}

// New connects every configured backend. Optional backends (NATS, Neo4j)
// that cannot be reached are logged and skipped; the risk store, Redis and
// the alerter are required once configured.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		logger: log.WithComponent("app"),
		checks: make(map[string]handlers.Pinger),
	}
	if err := a.build(ctx, log); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, log *logger.Logger) (err error) {
	cfg := a.Config
	if err := a.openStore(ctx); err != nil {
		return err
	}

	communityID := cfg.Scoring.CommunityProfileID
	if cfg.Store.SeedCommunity && communityID != "" {
		n, err := riskprofile.SeedCommunity(ctx, a.Store, communityID)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to seed community profile")
		} else {
			a.logger.Info().Int("entities", n).Str("profile_id", communityID).Msg("community profile seeded")
		}
	}

	var community riskprofile.Reader
	if communityID != "" {
		community = riskprofile.Open(a.Store, communityID)
	}
	engine := correlation.NewEngine(community, log)

	opts := orchestrator.Options{
		Store:     a.Store,
		Engine:    engine,
		Documents: scoring.NewDocumentScorer(log),
		Messages:  scoring.NewMessageScorer(log),
		Transactions: scoring.NewTransactionScorer(scoring.TransactionConfig{
			HighAmountThreshold: decimal.NewFromFloat(cfg.Scoring.HighAmountThreshold),
			FamilyAllowlist:     cfg.Scoring.FamilyAllowlist,
			FamilyRelationTerms: cfg.Scoring.FamilyRelationTerms,
		}, log),
		CommunityProfileID:     communityID,
		ApprovalScoreThreshold: cfg.Scoring.ApprovalScoreThreshold,
		AsyncTimeout:           cfg.Notify.Timeout,
		Logger:                 log,
	}

	var classifier orchestrator.IntentClassifier
	if cfg.LLM.Enabled {
		client, err := llm.NewClient(llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLM.Timeout,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		classifier = client
		opts.Narrator = client
	}
	opts.Router = orchestrator.NewRouter(classifier, cfg.LLM.Timeout, log)

	if opts.Approvals, err = a.openApprovals(ctx); err != nil {
		return err
	}

	a.openEvents(ctx)
	opts.Events = append(opts.Events, a.bus)
	if cfg.Neo4j.Enabled {
		client, err := graph.NewNeo4jClient(ctx, cfg.Neo4j, log)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to connect to Neo4j, continuing without graph mirror")
		} else {
			a.graph = graph.NewRepository(client, log)
			opts.Events = append(opts.Events, a.graph)
			a.checks["neo4j"] = client
			a.closers = append(a.closers, client.Close)
		}
	}

	if cfg.Notify.Enabled {
		alerter, err := notify.NewShoutrrrAlerter(cfg.Notify, log)
		if err != nil {
			return err
		}
		opts.Alerter = alerter
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.metrics, err = metrics.NewCollector(a.registry, engine.GetStats); err != nil {
		return err
	}
	opts.Metrics = a.metrics

	if a.Orchestrator, err = orchestrator.New(opts); err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	// runs first on Close so deliveries drain before their sinks disconnect
	a.closers = append(a.closers, a.Orchestrator.Close)
	return nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := database.NewSQLite(ctx, cfg.Store.SQLitePath, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open SQLite store: %w", err)
		}
		a.Store = repository.NewSQLiteProfiles(db)
		a.checks["store"] = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open PostgreSQL store: %w", err)
		}
		a.Store = repository.NewPostgresProfiles(db.Pool())
		a.checks["store"] = db
		a.closers = append(a.closers, func(context.Context) error { db.Close(); return nil })
	case config.StoreDriverMemory:
		a.Store = riskprofile.NewMemoryStore()
		a.logger.Warn().Msg("using in-memory risk store, flags are lost on restart")
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}

func (a *App) openApprovals(ctx context.Context) (approval.Store, error) {
	cfg := a.Config
	if !cfg.Redis.Enabled {
		a.limiter = cache.NewLocalRateLimiter()
		return approval.NewMemoryStore(cfg.Redis.ApprovalTTL), nil
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.limiter = redisCache
	a.checks["redis"] = redisCache
	a.closers = append(a.closers, func(context.Context) error { return redisCache.Close() })
	return cache.NewApprovalStore(redisCache, cfg.Redis.ApprovalTTL), nil
}

func (a *App) openEvents(ctx context.Context) {
	var publisher *streaming.NATSPublisher
	if a.Config.NATS.Enabled {
		p, err := streaming.NewNATSPublisher(ctx, a.Config.NATS, a.logger)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to connect to NATS, continuing with local events only")
		} else {
			publisher = p
		}
	}

	a.bus = streaming.NewEventBus(publisher, a.logger)
	a.hub = streaming.NewWebSocketHub(a.bus, a.logger)
	a.closers = append(a.closers, func(context.Context) error { a.bus.Close(); return nil })
	a.logger.Info().Bool("nats_enabled", publisher != nil).Msg("event bus initialized")
}

// Handler builds the HTTP handler tree
func (a *App) Handler() http.Handler {
	deps := handlers.Dependencies{
		Orchestrator: a.Orchestrator,
		Events:       a.hub.ServeWebSocket,
		Checks:       a.checks,
		Version:      a.Config.App.Version,
		Logger:       a.logger,
	}
	if a.graph != nil {
		deps.Graph = a.graph
	}

	opts := api.Options{Limiter: a.limiter, Recorder: a.metrics}
	if a.Config.Metrics.Enabled {
		opts.Metrics = metrics.Handler(a.registry)
	}
	return api.NewRouter(*a.Config, handlers.NewHandlers(deps), opts, a.logger).Setup()
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config.Server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go a.bus.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", server.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

// Close releases everything in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
