package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultEndpoint, cfg.Settings.Endpoint)
	assert.Equal(t, DefaultRunColumn, cfg.Settings.RunColumn)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultMaxDownloads, cfg.Settings.MaxDownloads)
	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.NotEmpty(t, cfg.Settings.CacheDir)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		content     string
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:        "empty path",
			path:        "",
			expectError: true,
		},
		{
			name: "missing file yields defaults",
			path: filepath.Join(t.TempDir(), "does-not-exist.yaml"),
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultEndpoint, cfg.Settings.Endpoint)
			},
		},
		{
			name: "valid config",
			content: `settings:
  cache_dir: /data/wort/sigs
  max_downloads: 12
  http_timeout: 10s
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/data/wort/sigs", cfg.Settings.CacheDir)
				assert.Equal(t, 12, cfg.Settings.MaxDownloads)
				assert.Equal(t, 10*time.Second, cfg.Settings.HTTPTimeout)
				// Unset fields keep defaults.
				assert.Equal(t, DefaultEndpoint, cfg.Settings.Endpoint)
				assert.Equal(t, DefaultRunColumn, cfg.Settings.RunColumn)
			},
		},
		{
			name:        "invalid yaml",
			content:     "settings: [not a mapping",
			expectError: true,
		},
		{
			name: "negative max_downloads",
			content: `settings:
  max_downloads: -2
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.content != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			cfg, err := LoadConfig(path)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfigFromReader_ParseError(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("{{nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigParse)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Settings.CacheDir = "/tmp/sigs"
	cfg.Settings.MaxDownloads = 3
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sigs", loaded.Settings.CacheDir)
	assert.Equal(t, 3, loaded.Settings.MaxDownloads)

	// No stray temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveConfig_EmptyPath(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.SaveConfig(""))
}
