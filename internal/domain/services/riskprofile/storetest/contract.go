// Package storetest holds the behaviour every riskprofile.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
)

// Run exercises a store created fresh for each subtest by newStore
func Run(t *testing.T, newStore func(t *testing.T) riskprofile.Store) {
	t.Run("MergeKeepsMaxScoreAndAppendsNotes", func(t *testing.T) {
		p := riskprofile.Open(newStore(t), "household-merge")
		ctx := context.Background()

		_, err := p.Put(ctx, phone("8765432109", 6, "loan offer document"))
		require.NoError(t, err)
		merged, err := p.Put(ctx, phone("+91 87654 32109", 9, "kyc message"))
		require.NoError(t, err)

		assert.Equal(t, "8765432109", merged.ID)
		assert.Equal(t, 9, merged.RiskScore)
		assert.Equal(t, []string{"loan offer document", "kyc message"}, merged.Notes)

		// lower re-flag keeps the max
		_, err = p.Put(ctx, phone("8765432109", 2, "transaction"))
		require.NoError(t, err)

		got, err := p.Lookup(ctx, []string{"8765432109"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 9, got[0].RiskScore)
		assert.Len(t, got[0].Notes, 3)

		all, err := p.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("LookupIsExactAndProfileScoped", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := riskprofile.Open(store, "household-a")
		b := riskprofile.Open(store, "household-b")

		_, err := a.Put(ctx, models.FlaggedEntity{ID: "GoldenLoan@YBL", Kind: models.EntityKindUPI, RiskScore: 8, Source: models.EntitySourceDocument, SourceRef: "doc-1"})
		require.NoError(t, err)

		got, err := a.Lookup(ctx, []string{"goldenloan@ybl", "goldenloan", "8765432109"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "goldenloan@ybl", got[0].ID)
		assert.Equal(t, models.EntitySourceDocument, got[0].Source)
		assert.Equal(t, "doc-1", got[0].SourceRef)

		got, err = b.Lookup(ctx, []string{"goldenloan@ybl"})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = a.Lookup(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ListPreservesFirstSeenOrder", func(t *testing.T) {
		p := riskprofile.Open(newStore(t), "household-order")
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		for i, id := range []string{"7000000001", "7000000002", "7000000003"} {
			e := phone(id, 5, "")
			e.FirstSeen = base.Add(time.Duration(i) * time.Minute)
			_, err := p.Put(ctx, e)
			require.NoError(t, err)
		}
		// re-flag of the first entity must not move it
		_, err := p.Put(ctx, phone("7000000001", 7, "again"))
		require.NoError(t, err)

		all, err := p.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "7000000001", all[0].ID)
		assert.Equal(t, 7, all[0].RiskScore)
		assert.True(t, all[0].FirstSeen.Equal(base))
		assert.Equal(t, "7000000003", all[2].ID)
	})

	t.Run("ConcurrentWritersNeverLoseUpdates", func(t *testing.T) {
		p := riskprofile.Open(newStore(t), "household-race")
		ctx := context.Background()

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := p.Put(ctx, phone("9123456780", i%11, fmt.Sprintf("note-%d", i)))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := p.Lookup(ctx, []string{"9123456780"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 10, got[0].RiskScore)
		assert.Len(t, got[0].Notes, writers)
	})

	t.Run("RejectsInvalidEntities", func(t *testing.T) {
		p := riskprofile.Open(newStore(t), "household-invalid")
		ctx := context.Background()

		_, err := p.Put(ctx, models.FlaggedEntity{ID: "", Kind: models.EntityKindPhone})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		_, err = p.Put(ctx, models.FlaggedEntity{ID: "x", Kind: "EMAIL"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func phone(id string, score int, note string) models.FlaggedEntity {
	e := models.FlaggedEntity{
		ID:        id,
		Kind:      models.EntityKindPhone,
		RiskScore: score,
		Source:    models.EntitySourceMessage,
		SourceRef: "msg-" + id,
	}
	if note != "" {
		e.Notes = []string{note}
	}
	return e
}
