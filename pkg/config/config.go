// Package config provides configuration management for the sigsync tool.
// It handles loading, validating, and saving application settings. The
// package supports YAML configuration files and provides sensible defaults
// while allowing customization through the config file and CLI flags.
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Remote service settings
	Endpoint string `yaml:"endpoint,omitempty"`

	// Input settings
	RunColumn string `yaml:"run_column,omitempty"` // header of the accession column in run-info tables

	// Network settings
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	MaxDownloads int           `yaml:"max_downloads"`

	// Run settings
	SkipDownload bool `yaml:"skip_download"` // index-only mode: never contact the remote service

	// Output settings
	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultEndpoint is the base URL of the signature service.
	DefaultEndpoint = "https://wort.sourmash.bio/v1/view/sra"

	// DefaultRunColumn is the run-info header naming the accession column.
	DefaultRunColumn = "Run"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxDownloads is the default maximum number of concurrent downloads.
	DefaultMaxDownloads = 5
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetSignatureCacheDir()
	if err != nil {
		// Fallback to current directory if we can't determine the user cache dir
		cacheDir = "sigs"
	}

	return &Config{
		Settings: Settings{
			CacheDir:     cacheDir,
			Endpoint:     DefaultEndpoint,
			RunColumn:    DefaultRunColumn,
			HTTPTimeout:  DefaultHTTPTimeout,
			MaxDownloads: DefaultMaxDownloads,
			LogLevel:     "info",
		},
	}
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration, not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	// Write via a temp file so a crash never leaves a truncated config behind.
	tempPath := absPath + ".tmp"
	if err := os.WriteFile(tempPath, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	if err := fsutil.Move(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to finalize config file")
	}

	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Settings.MaxDownloads < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "max_downloads must not be negative: %d", c.Settings.MaxDownloads)
	}
	if c.Settings.HTTPTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "http_timeout must not be negative: %s", c.Settings.HTTPTimeout)
	}
	return nil
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.Endpoint == "" {
		c.Settings.Endpoint = defaults.Settings.Endpoint
	}
	if c.Settings.RunColumn == "" {
		c.Settings.RunColumn = defaults.Settings.RunColumn
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxDownloads == 0 {
		c.Settings.MaxDownloads = defaults.Settings.MaxDownloads
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
