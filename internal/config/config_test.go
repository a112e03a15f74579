package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.InDelta(t, 10000.0, cfg.Scoring.HighAmountThreshold, 0.001)
	assert.Equal(t, 5, cfg.Scoring.ApprovalScoreThreshold)
	assert.Contains(t, cfg.Scoring.FamilyRelationTerms, "beti")
	assert.Equal(t, LLMProviderOllama, cfg.LLM.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: memory
scoring:
  high_amount_threshold: 25000
  family_allowlist:
    - "9812345678"
    - "amma@okaxis"
notify:
  enabled: true
  urls: ["generic://example.invalid/hook"]
  timeout: 3s
`)
	t.Setenv("DHANKAVACH_STORE_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.InDelta(t, 25000.0, cfg.Scoring.HighAmountThreshold, 0.001)
	assert.Equal(t, []string{"9812345678", "amma@okaxis"}, cfg.Scoring.FamilyAllowlist)
	assert.Equal(t, 3*time.Second, cfg.Notify.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsStartupFatalConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }, "unknown llm provider"},
		{"gemini without key", func(c *Config) { c.LLM.Provider = LLMProviderGemini }, "api_key is required"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown store driver"},
		{"zero threshold", func(c *Config) { c.Scoring.HighAmountThreshold = 0 }, "high_amount_threshold"},
		{"approval out of range", func(c *Config) { c.Scoring.ApprovalScoreThreshold = 11 }, "approval_score_threshold"},
		{"notify without urls", func(c *Config) { c.Notify.Enabled = true }, "notify.urls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadDefault()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGeminiKeyFromGoogleEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DHANKAVACH_MODEL", "gemini")
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	require.NoError(t, cfg.Validate())
}
