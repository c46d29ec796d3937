package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvURL         = "IMMICH_URL"
	EnvToken       = "IMMICH_TOKEN"
	EnvAlbums      = "IMMICH_ALBUMS"
	EnvDestination = "DOWNLOAD_DEST"
	EnvConcurrency = "IMMICH_DL_CONCURRENCY"
	EnvTimeout     = "IMMICH_DL_TIMEOUT"
	EnvLogLevel    = "IMMICH_DL_LOG_LEVEL"
	EnvLogFormat   = "IMMICH_DL_LOG_FORMAT"
	EnvLogFile     = "IMMICH_DL_LOG_FILE"
)

// ErrMissingSettings is returned by Validate when the server URL, the token or
// the first album identifier is absent.
var ErrMissingSettings = errors.New("Missing IMMICH_URL, IMMICH_TOKEN, or IMMICH_ALBUMS environment variables.")

// Config holds all configuration options for the album downloader
type Config struct {
	// Immich server connection
	Immich ImmichConfig `yaml:"immich" json:"immich"`

	// Album identifiers in processing order
	Albums []string `yaml:"albums" json:"albums"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ImmichConfig holds the server address and credentials
type ImmichConfig struct {
	URL   string `yaml:"url" json:"url"`
	Token string `yaml:"token" json:"token"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the stock settings
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			BaseDirectory: "./downloads",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 10,
			Timeout:             60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SplitAlbumIDs splits a comma separated list and trims every entry. Empty
// entries are kept so the caller can see whether the first one was blank.
func SplitAlbumIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// AlbumIDs returns the configured album identifiers with blank entries removed
func (c *Config) AlbumIDs() []string {
	ids := make([]string, 0, len(c.Albums))
	for _, id := range c.Albums {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if url := os.Getenv(EnvURL); url != "" {
		c.Immich.URL = url
	}
	if token := os.Getenv(EnvToken); token != "" {
		c.Immich.Token = token
	}
	if albums := os.Getenv(EnvAlbums); albums != "" {
		c.Albums = SplitAlbumIDs(albums)
	}
	if dest := os.Getenv(EnvDestination); dest != "" {
		c.Output.BaseDirectory = dest
	}

	if concurrent := os.Getenv(EnvConcurrency); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", EnvConcurrency, concurrent)
		}
		c.Download.ConcurrentDownloads = val
	}

	if timeout := os.Getenv(EnvTimeout); timeout != "" {
		val, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("%s must be a duration such as 60s: %w", EnvTimeout, err)
		}
		c.Download.Timeout = val
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv(EnvLogFormat); logFormat != "" {
		c.Logging.Format = logFormat
	}
	if logFile := os.Getenv(EnvLogFile); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".immich-dl.yaml",
		".immich-dl.yml",
		filepath.Join(home, ".config", "immich-dl", "config.yaml"),
		filepath.Join(home, ".config", "immich-dl", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. A missing URL, token or
// first album identifier yields ErrMissingSettings and nothing else.
func (c *Config) Validate() error {
	if c.Immich.URL == "" || c.Immich.Token == "" || len(c.Albums) == 0 || strings.TrimSpace(c.Albums[0]) == "" {
		return ErrMissingSettings
	}

	var errs []error

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	validLogFormats := map[string]bool{
		"console": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file carries the API token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.BaseDirectory = output
	}
	if albums, ok := flags["albums"].(string); ok && albums != "" {
		c.Albums = SplitAlbumIDs(albums)
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat, ok := flags["log-format"].(string); ok && logFormat != "" {
		c.Logging.Format = logFormat
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		if errors.Is(err, ErrMissingSettings) {
			return nil, err
		}
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
