// Package config loads pdfbatch settings from defaults, an optional YAML file
// and PDFBATCH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/pdfbatch/internal/logging"
)

// Defaults for a container deployment of the MinerU toolchain.
const (
	DefaultInputDir   = "/app/MinerU/data/input"
	DefaultOutputDir  = "/app/MinerU/data/output"
	DefaultLogFile    = "/app/MinerU/data/logs/mineru.log"
	DefaultMethod     = "auto"
	DefaultWorkers    = 4
	DefaultBatchSize  = 200
	DefaultBinary     = "magic-pdf"
	DefaultMinVersion = ">= 0.6.0"
	DefaultLogLevel   = "info"

	DefaultParseTimeout  = 30 * time.Minute
	DefaultWatchDebounce = 2 * time.Second
)

// Validation errors.
var (
	ErrInvalidWorkers    = errors.New("workers must be at least 1")
	ErrInvalidBatchSize  = errors.New("batch size must be at least 1")
	ErrMissingInputDir   = errors.New("input directory must be set")
	ErrMissingOutputDir  = errors.New("output directory must be set")
	ErrInvalidTimeout    = errors.New("timeout must not be negative")
	ErrInvalidConstraint = errors.New("invalid mineru version constraint")
	ErrMissingBinary     = errors.New("mineru binary must be set")
)

// Config is the complete pdfbatch configuration.
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	MinerU  MinerUConfig  `yaml:"mineru"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
}

// BatchConfig holds the run parameters handed to the orchestrator.
// Method and Lang are passed through untouched; the toolchain validates them.
type BatchConfig struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	Method    string `yaml:"method"`
	Lang      string `yaml:"lang"`
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
}

// MinerUConfig configures the magic-pdf command line adapter.
type MinerUConfig struct {
	Binary       string        `yaml:"binary"`
	MinVersion   string        `yaml:"min_version"`
	CheckVersion bool          `yaml:"check_version"`
	ParseTimeout time.Duration `yaml:"parse_timeout"`
	ExtraArgs    []string      `yaml:"extra_args,omitempty"`
}

// LoggingConfig configures log level, console format and the log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Batch: BatchConfig{
			InputDir:  DefaultInputDir,
			OutputDir: DefaultOutputDir,
			Method:    DefaultMethod,
			Lang:      "",
			Workers:   DefaultWorkers,
			BatchSize: DefaultBatchSize,
		},
		MinerU: MinerUConfig{
			Binary:       DefaultBinary,
			MinVersion:   DefaultMinVersion,
			CheckVersion: false,
			ParseTimeout: DefaultParseTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: logging.FormatConsole,
			File:   DefaultLogFile,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
	}
}

// Validate checks numeric bounds, required paths and the version constraint.
func (c *Config) Validate() error {
	if c.Batch.InputDir == "" {
		return ErrMissingInputDir
	}
	if c.Batch.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Batch.Workers)
	}
	if c.Batch.BatchSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, c.Batch.BatchSize)
	}
	if c.MinerU.Binary == "" {
		return ErrMissingBinary
	}
	if c.MinerU.ParseTimeout < 0 {
		return fmt.Errorf("%w: parse_timeout %s", ErrInvalidTimeout, c.MinerU.ParseTimeout)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: debounce %s", ErrInvalidTimeout, c.Watch.Debounce)
	}
	if c.MinerU.MinVersion != "" {
		if _, err := semver.NewConstraint(c.MinerU.MinVersion); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidConstraint, c.MinerU.MinVersion, err)
		}
	}
	return nil
}

// ToLoggingConfig converts the logging section for the logging package.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		File:   lc.File,
	}
}

// GetConfigDir returns $PDFBATCH_HOME or ~/.pdfbatch.
func GetConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pdfbatch"), nil
}

// DefaultConfigPath returns the config.yaml path inside the config directory.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
