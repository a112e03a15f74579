package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

// RelatedEntity is an identifier that appeared in the same source as another
type RelatedEntity struct {
	ID         string            `json:"id"`
	Kind       models.EntityKind `json:"kind"`
	RiskScore  int               `json:"risk_score"`
	SharedRefs []string          `json:"shared_sources"`
}

// Repository mirrors flagged entities into a scam-chain graph:
// (:Profile)-[:FLAGGED]->(:Entity)-[:SEEN_IN]->(:Source)<-[:FOR]-(:Approval)
type Repository struct {
	client *Neo4jClient
	logger *logger.Logger
}

// NewRepository creates a graph repository
func NewRepository(client *Neo4jClient, log *logger.Logger) *Repository {
	return &Repository{client: client, logger: log.WithComponent("graph-repository")}
}

// PublishEntityFlagged merges the entity, its source and the owning profile
func (r *Repository) PublishEntityFlagged(ctx context.Context, profileID string, e models.FlaggedEntity) error {
	query := `
		MERGE (en:Entity {id: $id})
		ON CREATE SET en.kind = $kind, en.first_seen = datetime($first_seen)
		SET en.risk_score = CASE WHEN coalesce(en.risk_score, 0) > $score THEN en.risk_score ELSE $score END,
		    en.last_seen = datetime($last_seen)
		MERGE (s:Source {ref: $source_ref})
		ON CREATE SET s.kind = $source
		MERGE (en)-[:SEEN_IN]->(s)
		MERGE (p:Profile {id: $profile_id})
		MERGE (p)-[f:FLAGGED]->(en)
		SET f.updated_at = datetime()
	`
	params := map[string]any{
		"id":         e.ID,
		"kind":       string(e.Kind),
		"score":      e.RiskScore,
		"first_seen": e.FirstSeen.UTC().Format("2006-01-02T15:04:05Z"),
		"last_seen":  e.LastSeen.UTC().Format("2006-01-02T15:04:05Z"),
		"source_ref": sourceRef(e),
		"source":     string(e.Source),
		"profile_id": profileID,
	}

	_, err := r.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror entity %s: %w", e.ID, err)
	}
	return nil
}

// PublishApproval records the approval against the transaction source node
func (r *Repository) PublishApproval(ctx context.Context, req *models.FamilyApprovalRequest) error {
	query := `
		MERGE (a:Approval {id: $id})
		SET a.status = $status, a.risk_score = $score
		MERGE (s:Source {ref: $tx_ref})
		ON CREATE SET s.kind = 'TRANSACTION'
		MERGE (a)-[:FOR]->(s)
	`
	params := map[string]any{
		"id":     req.ID,
		"status": string(req.Status),
		"score":  req.RiskScore,
		"tx_ref": req.TransactionRef,
	}

	_, err := r.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror approval %s: %w", req.ID, err)
	}
	return nil
}

// RelatedEntities returns identifiers that shared a document, message or
// payment with entityID, strongest first
func (r *Repository) RelatedEntities(ctx context.Context, entityID string, limit int) ([]RelatedEntity, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := `
		MATCH (e:Entity {id: $id})-[:SEEN_IN]->(s:Source)<-[:SEEN_IN]-(o:Entity)
		WHERE o.id <> e.id
		RETURN o.id AS id, o.kind AS kind, coalesce(o.risk_score, 0) AS score, collect(DISTINCT s.ref) AS refs
		ORDER BY score DESC, id
		LIMIT $limit
	`

	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"id": entityID, "limit": limit})
		if err != nil {
			return nil, err
		}

		var related []RelatedEntity
		for res.Next(ctx) {
			rec := res.Record()
			id, _, _ := neo4j.GetRecordValue[string](rec, "id")
			kind, _, _ := neo4j.GetRecordValue[string](rec, "kind")
			score, _, _ := neo4j.GetRecordValue[int64](rec, "score")
			refs, _, _ := neo4j.GetRecordValue[[]any](rec, "refs")

			entity := RelatedEntity{ID: id, Kind: models.EntityKind(kind), RiskScore: int(score)}
			for _, ref := range refs {
				if s, ok := ref.(string); ok {
					entity.SharedRefs = append(entity.SharedRefs, s)
				}
			}
			related = append(related, entity)
		}
		return related, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query related entities: %w", err)
	}

	related, _ := result.([]RelatedEntity)
	return related, nil
}

// sourceRef keeps refs from different sources apart in the graph
func sourceRef(e models.FlaggedEntity) string {
	if e.SourceRef == "" {
		return string(e.Source) + ":unknown"
	}
	return e.SourceRef
}
