package handlers

import (
	"context"
	"net/http"

	"dhankavach/internal/domain/services/orchestrator"
	"dhankavach/internal/infrastructure/graph"
	"dhankavach/pkg/logger"
)

// Pinger is a dependency the readiness probe can check
type Pinger interface {
	Ping(ctx context.Context) error
}

// RelatedFinder answers scam-chain queries; implemented by the Neo4j mirror
type RelatedFinder interface {
	RelatedEntities(ctx context.Context, entityID string, limit int) ([]graph.RelatedEntity, error)
}

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Analysis  *AnalysisHandler
	Profiles  *ProfilesHandler
	Approvals *ApprovalsHandler
	Tips      *TipsHandler
	Graph     *GraphHandler    // nil when the graph mirror is disabled
	Events    http.HandlerFunc // nil when live events are disabled
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Graph        RelatedFinder
	Events       http.HandlerFunc
	Checks       map[string]Pinger
	Version      string
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	h := &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Checks, deps.Logger),
		Analysis:  NewAnalysisHandler(deps.Orchestrator, deps.Logger),
		Profiles:  NewProfilesHandler(deps.Orchestrator, deps.Logger),
		Approvals: NewApprovalsHandler(deps.Orchestrator, deps.Logger),
		Tips:      NewTipsHandler(),
		Events:    deps.Events,
	}
	if deps.Graph != nil {
		h.Graph = NewGraphHandler(deps.Graph, deps.Logger)
	}
	return h
}
