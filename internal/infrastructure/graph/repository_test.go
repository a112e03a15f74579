package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/config"
	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

func TestSourceRefFallsBackToSourceKind(t *testing.T) {
	assert.Equal(t, "DOCUMENT:unknown", sourceRef(models.FlaggedEntity{Source: models.EntitySourceDocument}))
	assert.Equal(t, "doc-1", sourceRef(models.FlaggedEntity{Source: models.EntitySourceDocument, SourceRef: "doc-1"}))
}

// Set DHANKAVACH_TEST_NEO4J_URI (and _USER/_PASSWORD) to run against a real server
func TestRepositoryLinksEntitiesThroughSharedSource(t *testing.T) {
	uri := os.Getenv("DHANKAVACH_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("DHANKAVACH_TEST_NEO4J_URI not set")
	}
	ctx := context.Background()
	client, err := NewNeo4jClient(ctx, config.Neo4jConfig{
		URI:      uri,
		Username: os.Getenv("DHANKAVACH_TEST_NEO4J_USER"),
		Password: os.Getenv("DHANKAVACH_TEST_NEO4J_PASSWORD"),
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	repo := NewRepository(client, logger.NewNop())
	suffix := uuid.NewString()
	now := time.Now().UTC()
	ref := "doc-" + suffix
	phone := models.FlaggedEntity{ID: "+91" + suffix, Kind: models.EntityKindPhone, RiskScore: 8,
		Source: models.EntitySourceDocument, SourceRef: ref, FirstSeen: now, LastSeen: now}
	upi := models.FlaggedEntity{ID: "fraud-" + suffix + "@ybl", Kind: models.EntityKindUPI, RiskScore: 9,
		Source: models.EntitySourceDocument, SourceRef: ref, FirstSeen: now, LastSeen: now}

	require.NoError(t, repo.PublishEntityFlagged(ctx, "household-"+suffix, phone))
	require.NoError(t, repo.PublishEntityFlagged(ctx, "household-"+suffix, upi))

	related, err := repo.RelatedEntities(ctx, phone.ID, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, upi.ID, related[0].ID)
	assert.Equal(t, models.EntityKindUPI, related[0].Kind)
	assert.Equal(t, []string{ref}, related[0].SharedRefs)
}
