package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		name: "Other Shop",
		collections: ["https://other.shop/collections/vinyl?page=%d"],
		requests_per_second: 5,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		db_path: "/tmp/other.db",
		email: {
			smtp: { server: "smtp.other.shop", port: 25 },
			to: ["me@other.shop"],
		},
	}`)

	cfg, err := LoadConfig(filepath.Join(dir, "config.json5"))
	require.NoError(t, err)

	defaults := DefaultConfig()
	require.Equal(t, "Other Shop", cfg.Name)
	require.Equal(t, []string{"https://other.shop/collections/vinyl?page=%d"}, cfg.Collections)
	require.Equal(t, 5.0, cfg.RequestsPerSecond)
	require.Equal(t, "/tmp/other.db", cfg.DbPath)
	require.True(t, cfg.Email.Enabled())

	require.Equal(t, defaults.RateUrl, cfg.RateUrl)
	require.Equal(t, defaults.CronSpec, cfg.CronSpec)
	require.Equal(t, defaults.MediaFilter, cfg.MediaFilter)
	require.Equal(t, defaults.QuoteCurrency, cfg.QuoteCurrency)
}

func TestLoadConfigKeepsExplicitEmptyValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		media_filter: { exclude_title_markers: [] },
		requests_per_second: 0,
	}`)

	cfg, err := LoadConfig(filepath.Join(dir, "config.json5"))
	require.NoError(t, err)

	require.NotNil(t, cfg.MediaFilter.ExcludeTitleMarkers)
	require.Empty(t, cfg.MediaFilter.ExcludeTitleMarkers)
	require.Equal(t, DefaultConfig().MediaFilter.ExcludeImageMarkers, cfg.MediaFilter.ExcludeImageMarkers)
	require.True(t, cfg.MediaFilter.Match("Album [CD]", nil))
	require.Zero(t, cfg.RequestsPerSecond)
	require.Equal(t, DefaultConfig().Collections, cfg.Collections)
}

func TestLoadConfigLocalOverridesWithZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ requests_per_second: 5 }`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ requests_per_second: 0 }`)

	cfg, err := LoadConfig(filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Zero(t, cfg.RequestsPerSecond)
}

func TestLoadConfigRejectsBadTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		collections: ["https://shop/collections/all"],
	}`)

	_, err := LoadConfig(filepath.Join(dir, "config.json5"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.MessageFormat = "html"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Email.Smtp.Server = "smtp.example.com"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TimeoutSeconds = -1
	require.Error(t, cfg.Validate())
}
