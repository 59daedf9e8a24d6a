// Package config loads application configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment variable overrides (BUP_...).
const EnvPrefix = "BUP"

// Config is the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system locations.
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// AnalysisConfig tunes the aging-report pipeline.
type AnalysisConfig struct {
	// MaxFileSizeMB is the workbook size gate; larger files are refused.
	MaxFileSizeMB int64 `yaml:"max_file_size_mb" envconfig:"MAX_FILE_SIZE_MB"`
	// HeaderScanRows bounds the header row search.
	HeaderScanRows int `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS"`
}

// StorageConfig tunes the persistence layer.
type StorageConfig struct {
	CacheTTLSeconds int  `yaml:"cache_ttl_seconds" envconfig:"CACHE_TTL_SECONDS"`
	MaxBackupCount  int  `yaml:"max_backup_count" envconfig:"MAX_BACKUP_COUNT"`
	HistoryLimit    int  `yaml:"history_limit" envconfig:"HISTORY_LIMIT"`
	// StrictChecksum turns checksum mismatches on load into errors instead
	// of warnings.
	StrictChecksum bool `yaml:"strict_checksum" envconfig:"STRICT_CHECKSUM"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Output: "both", FilePath: "logs/app.log"},
		Paths:    PathsConfig{DataDir: "data", LogsDir: "logs"},
		Analysis: AnalysisConfig{MaxFileSizeMB: 100, HeaderScanRows: 5},
		Storage: StorageConfig{
			CacheTTLSeconds: 300,
			MaxBackupCount:  10,
			HistoryLimit:    1000,
		},
	}
}

// Load builds the configuration. An empty path means "config.yaml" in the
// working directory; a missing file is silently skipped.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.MaxFileSizeMB <= 0 {
		return fmt.Errorf("analysis.max_file_size_mb must be positive, got %d", c.Analysis.MaxFileSizeMB)
	}
	if c.Analysis.HeaderScanRows <= 0 {
		return fmt.Errorf("analysis.header_scan_rows must be positive, got %d", c.Analysis.HeaderScanRows)
	}
	if c.Storage.MaxBackupCount < 0 {
		return fmt.Errorf("storage.max_backup_count must not be negative, got %d", c.Storage.MaxBackupCount)
	}
	if c.Storage.HistoryLimit <= 0 {
		return fmt.Errorf("storage.history_limit must be positive, got %d", c.Storage.HistoryLimit)
	}
	return nil
}

// BackupsDir returns the backup directory under the data directory.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.Paths.DataDir, "backups")
}

// MaxFileSizeBytes returns the workbook size gate in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Analysis.MaxFileSizeMB * 1024 * 1024
}

// CacheTTL returns the in-memory bundle cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLSeconds) * time.Second
}
