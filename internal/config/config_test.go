package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/raysh454/foxdriver/internal/config"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/geckodriver", cfg.Driver.Path)
	assert.False(t, cfg.Driver.Headless)
	assert.False(t, cfg.Driver.Verbose)
	assert.Empty(t, cfg.Driver.DownloadDir)

	assert.Equal(t, "latest", cfg.Install.Version)
	assert.Equal(t, "https://api.github.com", cfg.Install.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Install.Timeout)
	assert.NotEmpty(t, cfg.Install.CacheDir)

	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadWith_Overrides(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"FOXDRIVER_DRIVER_PATH":         "/opt/gecko/geckodriver",
		"FOXDRIVER_DRIVER_DOWNLOAD_DIR": "/data/downloads/",
		"FOXDRIVER_DRIVER_HEADLESS":     "true",
		"FOXDRIVER_INSTALL_CACHE_DIR":   "/var/cache/fox",
		"FOXDRIVER_INSTALL_VERSION":     "v0.34.0",
		"FOXDRIVER_INSTALL_TIMEOUT":     "5s",
		"FOXDRIVER_LOG_LEVEL":           "debug",
		"FOXDRIVER_LOG_FORMAT":          "json",
	}
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)

	assert.Equal(t, "/opt/gecko/geckodriver", cfg.Driver.Path)
	assert.Equal(t, "/data/downloads/", cfg.Driver.DownloadDir)
	assert.True(t, cfg.Driver.Headless)
	assert.Equal(t, "/var/cache/fox", cfg.Install.CacheDir)
	assert.Equal(t, "v0.34.0", cfg.Install.Version)
	assert.Equal(t, 5*time.Second, cfg.Install.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadWith_InvalidBool(t *testing.T) {
	t.Parallel()
	_, err := config.LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"FOXDRIVER_DRIVER_HEADLESS": "maybe",
	}))
	require.Error(t, err)
}
