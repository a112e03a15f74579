package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/orchestrator"
)

const loanOffer = "Golden Finance Loan Offer! Get instant loan at 0% interest. No documentation required. " +
	"Pay processing fee of Rs 2,000 upfront. Contact 8765432109 or pay to goldenloan@ybl."

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.Bytes()
}

// Each command builds and closes its own App, so the payment only sees the
// UPI handle through the SQLite file. The community seeds do not carry it.
func TestFlagsSurviveBetweenCommands(t *testing.T) {
	t.Setenv("DHANKAVACH_STORE_DRIVER", "sqlite")
	t.Setenv("DHANKAVACH_STORE_SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	var doc orchestrator.Response
	require.NoError(t, json.Unmarshal(run(t, "analyze",
		"--profile", "household-cli",
		"--agent", "document_analyzer",
		"--text", loanOffer,
	), &doc))
	assert.Equal(t, models.VerdictFraudulent, doc.Result.Verdict)
	assert.NotEmpty(t, doc.Persisted)

	var pay orchestrator.Response
	require.NoError(t, json.Unmarshal(run(t, "check-transaction",
		"--profile", "household-cli",
		"--to", "goldenloan@ybl",
		"--amount", "2999",
		"--purpose", "loan processing fee",
	), &pay))
	assert.True(t, pay.Result.IsConnected)
	assert.Equal(t, models.RecommendationBlock, pay.Result.Recommendation)

	var matched []string
	for _, m := range pay.Result.ConnectedMatches {
		matched = append(matched, m.ID)
	}
	assert.Contains(t, matched, "goldenloan@ybl")
}

func TestCheckTransactionRejectsBadAmount(t *testing.T) {
	t.Setenv("DHANKAVACH_STORE_DRIVER", "memory")

	rootCmd.SetArgs([]string{"check-transaction", "--profile", "p", "--to", "8765432109", "--amount", "lots"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --amount")
}
