package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseAppliesDefaults tests that omitted fields get their defaults
func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  username: root\n"))
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.Database.Username)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "single", cfg.Prediction.Mode)
	assert.Equal(t, 5, cfg.Prediction.Count)
	assert.Equal(t, 500, cfg.Prediction.MaxFrontAttempts)
	assert.Equal(t, 200, cfg.Prediction.MaxBackAttempts)
	assert.Equal(t, 30, cfg.Analysis.RecentWindow)
	assert.Equal(t, 5*time.Minute, cfg.App.PollingInterval)
	assert.Equal(t, "info", cfg.App.LogLevel)
}

// TestParseKeepsExplicitValues tests YAML values win over defaults
func TestParseKeepsExplicitValues(t *testing.T) {
	yml := `
prediction:
  mode: compound
  count: 3
  front_count: 8
  back_count: 3
  toggles:
    purchased_analysis: true
analysis:
  recent_window: 50
app:
  polling_interval: 30s
`
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, "compound", cfg.Prediction.Mode)
	assert.Equal(t, 8, cfg.Prediction.FrontCount)
	assert.Equal(t, 3, cfg.Prediction.BackCount)
	assert.True(t, cfg.Prediction.Toggles.PurchasedAnalysis)
	assert.False(t, cfg.Prediction.Toggles.RemoveNonWinning)
	assert.Equal(t, 50, cfg.Analysis.RecentWindow)
	assert.Equal(t, 30*time.Second, cfg.App.PollingInterval)
}

// TestParseRejectsInvalid tests validation failures
func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		msg  string
	}{
		{"bad mode", "prediction:\n  mode: lucky\n", "Mode must be one of"},
		{"front too large", "prediction:\n  front_count: 40\n", "FrontCount must be at most 35"},
		{"back too large", "prediction:\n  back_count: 13\n", "BackCount must be at most 12"},
		{"compound needs six", "prediction:\n  mode: compound\n  front_count: 5\n", "compound front_count"},
		{"bad log level", "app:\n  log_level: loud\n", "LogLevel"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

// TestLoadConfig tests loading from disk
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: db\n  port: 3307\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Contains(t, cfg.Database.GetDSN(), "@tcp(db:3307)/dlt")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestDefault tests the all-defaults config is valid
func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Analysis.FeatureCacheSize)
}
