package riskprofile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/domain/services/riskprofile/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) riskprofile.Store {
		return riskprofile.NewMemoryStore()
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := riskprofile.NewMemoryStore()
	p := riskprofile.Open(store, "household-1")
	ctx := context.Background()

	got, err := p.Put(ctx, models.FlaggedEntity{ID: "8765432109", Kind: models.EntityKindPhone, RiskScore: 6, Notes: []string{"first"}})
	require.NoError(t, err)
	got.Notes[0] = "mutated"

	stored, err := p.Lookup(ctx, []string{"8765432109"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, stored[0].Notes)
}

func TestSummarize(t *testing.T) {
	store := riskprofile.NewMemoryStore()
	p := riskprofile.Open(store, "household-1")
	ctx := context.Background()

	for _, e := range []models.FlaggedEntity{
		{ID: "8765432109", Kind: models.EntityKindPhone, RiskScore: 9},
		{ID: "goldenloan@ybl", Kind: models.EntityKindUPI, RiskScore: 8},
		{ID: "zero interest", Kind: models.EntityKindKeyword, RiskScore: 8},
		{ID: "bit.ly/x", Kind: models.EntityKindURL, RiskScore: 6},
	} {
		_, err := p.Put(ctx, e)
		require.NoError(t, err)
	}

	s, err := riskprofile.Summarize(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "household-1", s.ProfileID)
	assert.Equal(t, 4, s.TotalEntities)
	assert.Equal(t, 9, s.HighestRiskScore)
	assert.Equal(t, 1, s.ByKind[models.EntityKindURL])
	require.Len(t, s.Recipients, 2)
	assert.Equal(t, "8765432109", s.Recipients[0].ID)
	assert.Equal(t, []string{"zero interest"}, s.Keywords)

	kw, err := riskprofile.Keywords(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero interest"}, kw)
}

func TestSummarizeEmptyProfile(t *testing.T) {
	s, err := riskprofile.Summarize(context.Background(), riskprofile.Open(riskprofile.NewMemoryStore(), "nobody"))
	require.NoError(t, err)
	assert.Zero(t, s.TotalEntities)
	assert.Empty(t, s.Recipients)
}

func TestSeedCommunityIsIdempotent(t *testing.T) {
	store := riskprofile.NewMemoryStore()
	ctx := context.Background()

	n, err := riskprofile.SeedCommunity(ctx, store, "community")
	require.NoError(t, err)
	_, err = riskprofile.SeedCommunity(ctx, store, "community")
	require.NoError(t, err)

	all, err := store.List(ctx, "community")
	require.NoError(t, err)
	assert.Len(t, all, n)

	got, err := store.Lookup(ctx, "community", []string{"9988776655"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].RiskScore)
	assert.Empty(t, got[0].Notes)
}
