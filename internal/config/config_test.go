package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ntbea", cfg.App.Name)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "ntbea.db", cfg.Storage.SQLitePath)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 10, cfg.Search.Runs)
	assert.Equal(t, 1000, cfg.Search.Evals)
	assert.Equal(t, 2.0, cfg.Search.KExplore)
	assert.Equal(t, int64(1), cfg.Search.Seed)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NTBEA_STORE", "sqlite")
	t.Setenv("NTBEA_SQLITE_PATH", "/tmp/runs.db")
	t.Setenv("NTBEA_METRICS_ENABLED", "true")
	t.Setenv("NTBEA_METRICS_PORT", "9191")
	t.Setenv("NTBEA_EVALS", "250")
	t.Setenv("NTBEA_K_EXPLORE", "0.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/runs.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "9191", cfg.Metrics.Port)
	assert.Equal(t, 250, cfg.Search.Evals)
	assert.Equal(t, 0.5, cfg.Search.KExplore)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric int", "NTBEA_RUNS", "ten"},
		{"non-numeric float", "NTBEA_K_EXPLORE", "high"},
		{"bad bool", "NTBEA_METRICS_ENABLED", "sometimes"},
		{"unknown backend", "NTBEA_STORE", "postgres"},
		{"unknown log level", "LOG_LEVEL", "trace"},
		{"too few runs", "NTBEA_RUNS", "0"},
		{"discretisation below two", "NTBEA_DISCRETISATION", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
