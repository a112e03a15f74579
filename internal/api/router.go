package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dhankavach/internal/api/handlers"
	apimiddleware "dhankavach/internal/api/middleware"
	"dhankavach/internal/config"
	"dhankavach/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.RateLimitStore
	metrics  http.Handler
	recorder apimiddleware.RequestRecorder
	logger   *logger.Logger
}

// Options carries the optional router dependencies
type Options struct {
	// Limiter backs rate limiting when it is enabled
	Limiter apimiddleware.RateLimitStore
	// Metrics serves the scrape endpoint; nil leaves it unmounted
	Metrics  http.Handler
	Recorder apimiddleware.RequestRecorder
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, opts Options, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger, r.recorder))
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)
	if r.metrics != nil {
		path := r.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, r.metrics)
	}

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Server.APIKey))
		if r.config.RateLimit.Enabled && r.limiter != nil {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
		}

		// the live feed holds its connection open, so it stays outside the timeout
		if r.handlers.Events != nil {
			api.Get("/events", r.handlers.Events)
		}

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(30 * time.Second))

			api.Post("/analyze", r.handlers.Analysis.Analyze)
			api.Post("/transactions/check", r.handlers.Analysis.CheckTransaction)

			api.Route("/profiles/{profileID}", func(p chi.Router) {
				p.Get("/", r.handlers.Profiles.Summary)
				p.Get("/entities/{entityID}", r.handlers.Profiles.Entity)
			})

			api.Route("/approvals/{approvalID}", func(a chi.Router) {
				a.Get("/", r.handlers.Approvals.Get)
				a.Post("/resolve", r.handlers.Approvals.Resolve)
			})

			api.Get("/tips", r.handlers.Tips.Get)

			if r.handlers.Graph != nil {
				api.Get("/graph/entities/{entityID}/related", r.handlers.Graph.Related)
			}
		})
	})

	return router
}
