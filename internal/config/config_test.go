package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "stormwatch.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.OpenWeather.BaseURL)
	assert.Equal(t, 5, cfg.Engine.CriticalCountForCritical)
	assert.Equal(t, 2, cfg.Engine.CriticalCountForMedium)
	assert.Equal(t, 10, cfg.Engine.MediumCountForMedium)
	assert.Equal(t, 30, cfg.Engine.MaxPromptReports)
	assert.Equal(t, 10, cfg.Engine.MaxRiskFactors)
	assert.Empty(t, cfg.Anthropic.Key)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/stormwatch
engine:
  critical_keywords: ["flood", "typhoon"]
  max_prompt_reports: 15
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/stormwatch", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"flood", "typhoon"}, cfg.Engine.CriticalKeywords)
	assert.Equal(t, 15, cfg.Engine.MaxPromptReports)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched defaults survive.
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
