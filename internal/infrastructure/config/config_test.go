package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "club.db"
server:
  port: 9000
  allowed_origins: ["http://localhost:5173"]
matching:
  amount_tolerance: 0.25
  date_tolerance_days: 30
  auto_mark_cash: true
categorization:
  rules_path: "rules.yaml"
ai:
  provider: gemini
  api_key: "k"
  batch_size: 5
  batch_delay: 500ms
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "club.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 0.25, cfg.Matching.AmountTolerance)
	assert.Equal(t, 30, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 45, cfg.Matching.WarningDateGapDays, "default applied")
	assert.True(t, cfg.Matching.AutoMarkCash)
	assert.Equal(t, "rules.yaml", cfg.Categorization.RulesPath)
	assert.Equal(t, 256, cfg.Categorization.PatternCacheSize)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 5, cfg.AI.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.BatchDelay)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative tolerance", "matching:\n  amount_tolerance: -1\n"},
		{"unknown provider", "ai:\n  provider: watson\n"},
		{"unknown log format", "observability:\n  logging:\n    format: xml\n"},
		{"not yaml", "matching: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "test.db")
	t.Setenv("MATCH_AMOUNT_TOLERANCE", "1.5")
	t.Setenv("MATCH_AUTO_MARK_CASH", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("AI_BATCH_DELAY", "3s")

	cfg := LoadFromEnv()

	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 1.5, cfg.Matching.AmountTolerance)
	assert.True(t, cfg.Matching.AutoMarkCash)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "test-key", cfg.AI.APIKey, "provider key picked up from its usual variable")
	assert.Equal(t, 3*time.Second, cfg.AI.BatchDelay)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "")
	t.Setenv("MATCH_DATE_TOLERANCE_DAYS", "")
	t.Setenv("AI_PROVIDER", "")

	cfg := LoadFromEnv()

	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.50, cfg.Matching.AmountTolerance)
	assert.Equal(t, 60, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Empty(t, cfg.AI.Provider)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "fallback.db")

	cfg := LoadOrEnv_WithPath("nonexistent.yaml")

	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
ai:
  provider: openai
  api_key: "${TEST_AI_KEY}"
`)
	t.Setenv("TEST_DB_PATH", "expanded.db")
	t.Setenv("TEST_AI_KEY", "expanded-key")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "expanded-key", cfg.AI.APIKey)
}

func TestGetAPIKey(t *testing.T) {
	cfg := &Config{}
	t.Setenv("SECOND_KEY", "from-env")

	assert.Equal(t, "explicit", cfg.GetAPIKey("explicit", "SECOND_KEY"))
	assert.Equal(t, "from-env", cfg.GetAPIKey("", "MISSING_KEY", "SECOND_KEY"))
	assert.Empty(t, cfg.GetAPIKey("", "MISSING_KEY"))
}
