package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_URL", "ENVIRONMENT", "PAGE_CACHE_TTL", "SITE_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "weblog.db", cfg.DatabaseURL)
	assert.Equal(t, EnvironmentProduction, cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 200*time.Second, cfg.PageCacheTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("ENVIRONMENT", "Staging")
	t.Setenv("PAGE_CACHE_TTL", "30s")
	t.Setenv("SITE_BASE_URL", "https://blog.example.org/")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, EnvironmentStaging, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.PageCacheTTL)
	assert.Equal(t, "https://blog.example.org", cfg.SiteBaseURL)
}

func TestUnknownEnvironmentFallsBackToProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "qa")
	assert.True(t, Load().IsProduction())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := AppConfig{SiteTimeZone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "site_title: My Weblog\nhomepage_num_entries: 8\nsearch_page_size: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "My Weblog", settings.SiteTitle)
	assert.Equal(t, 8, settings.HomepageNumEntries)
	assert.Equal(t, DefaultSettings().SearchPageSize, settings.SearchPageSize)
}

func TestLoadSettingsRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("homepage_num_entries: [oops"), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}
