package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OWNERLOOKUP_STATES", "")
	t.Setenv("OWNERLOOKUP_BASE_URL", "")
	t.Setenv("OPENCORPORATES_EMAIL", "")
	t.Setenv("OPENCORPORATES_PASSWORD", "")

	cfg := Load()

	assert.Equal(t, "https://opencorporates.com/", cfg.Scraper.BaseURL)
	assert.Equal(t, []string{"Illinois"}, cfg.Scraper.States)
	assert.Equal(t, 10*time.Second, cfg.Scraper.ResultsTimeout)
	assert.Equal(t, "companies.xlsx", cfg.Spreadsheet.InputPath)
	assert.Equal(t, "updated-companies.xlsx", cfg.Spreadsheet.OutputPath)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.False(t, cfg.Credentials.Configured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OWNERLOOKUP_STATES", "Illinois, New York ,")
	t.Setenv("OWNERLOOKUP_BASE_URL", "http://localhost:9999")
	t.Setenv("OWNERLOOKUP_RESULTS_TIMEOUT", "2s")
	t.Setenv("OWNERLOOKUP_HEADLESS", "false")
	t.Setenv("OWNERLOOKUP_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"Illinois", "New York"}, cfg.Scraper.States)
	assert.Equal(t, "http://localhost:9999/", cfg.Scraper.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Scraper.ResultsTimeout)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_DotEnvCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	env := "OPENCORPORATES_EMAIL=ops@example.com\nOPENCORPORATES_PASSWORD=from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	// Registered with t.Setenv so the values loaded from .env are restored.
	t.Setenv("OPENCORPORATES_EMAIL", "")
	t.Setenv("OPENCORPORATES_PASSWORD", "set-in-env")
	os.Unsetenv("OPENCORPORATES_EMAIL")

	cfg := Load()

	assert.Equal(t, "ops@example.com", cfg.Credentials.Email)
	assert.Equal(t, "set-in-env", cfg.Credentials.Password, "environment wins over .env")
	assert.True(t, cfg.Credentials.Configured())
}
