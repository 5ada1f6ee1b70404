// Package config loads, merges, validates, and persists trialstat
// configuration. Global configuration lives at ~/.trialstat/config.yaml;
// a project-local .trialstat/config.yaml overlays it section by section.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// Environment variables honored by the configuration system. These
// override the config file; CLI flags override both.
const (
	// EnvHome overrides the global configuration directory (~/.trialstat).
	EnvHome = "TRIALSTAT_HOME"
	// EnvProjectDir overrides project directory discovery.
	EnvProjectDir = "TRIALSTAT_PROJECT_DIR"
	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "TRIALSTAT_LOG_LEVEL"
	// EnvLogFormat overrides logging.format.
	EnvLogFormat = "TRIALSTAT_LOG_FORMAT"
	// EnvOutputFormat overrides output.default_format.
	EnvOutputFormat = "TRIALSTAT_OUTPUT_FORMAT"
)

// Logging output and format names shared with the logging bridge.
const (
	outputTypeFile = "file"
	formatConsole  = "console"
	formatJSON     = "json"
)

// ErrConfigValidation is the sentinel all configuration validation
// failures wrap.
var ErrConfigValidation = errors.New("config validation failed")

// validFormats lists the accepted output.default_format values.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var validFormats = map[string]bool{
	"table":  true,
	"json":   true,
	"ndjson": true,
	"csv":    true,
}

// OutputConfig controls report rendering defaults.
type OutputConfig struct {
	// DefaultFormat selects the output format when --output is not given:
	// table, json, ndjson, or csv.
	DefaultFormat string `yaml:"default_format"`
	// Precision is the number of decimal places in table output.
	Precision int `yaml:"precision"`
}

// AnalysisConfig controls summarization and screening defaults.
type AnalysisConfig struct {
	// HighThreshold is the screening level above which readings count as high.
	HighThreshold float64 `yaml:"high_threshold"`
	// OutlierTolerance is the allowed deviation of a table mean from the
	// batch mean of means before the table is flagged.
	OutlierTolerance float64 `yaml:"outlier_tolerance"`
	// Workers caps concurrent table summarization; 0 means sequential.
	Workers int `yaml:"workers"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, routes logs to the given path instead of stderr.
	File string `yaml:"file"`
}

// Config is the complete trialstat configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`

	// configPath is where Save writes; defaults to the global config file.
	configPath string `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			DefaultFormat: "table",
			Precision:     engine.DefaultPrecision,
		},
		Analysis: AnalysisConfig{
			HighThreshold:    engine.DefaultHighThreshold,
			OutlierTolerance: engine.DefaultOutlierTolerance,
			Workers:          0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: formatConsole,
		},
	}
}

// New returns the configuration loaded from the global config file,
// falling back to defaults when the file is missing. A corrupt global
// file also falls back to defaults; config validate surfaces the error.
func New() *Config {
	cfg := DefaultConfig()

	dir, err := GetConfigDir()
	if err != nil {
		return cfg
	}
	path := filepath.Join(dir, "config.yaml")
	cfg.configPath = path

	if _, statErr := os.Stat(path); statErr != nil {
		return cfg
	}
	if mergeErr := ShallowMergeYAML(cfg, path); mergeErr != nil {
		fresh := DefaultConfig()
		fresh.configPath = path
		return fresh
	}
	return cfg
}

// ConfigPath returns the file path Save will write to.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath overrides the file path Save will write to.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML to its config path, creating the
// parent directory as needed.
func (c *Config) Save() error {
	if c.configPath == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return err
		}
		c.configPath = filepath.Join(dir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(c.configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file %s: %w", c.configPath, err)
	}
	return nil
}

// Validate checks the configuration for semantic correctness.
func (c *Config) Validate() error {
	if !validFormats[c.Output.DefaultFormat] {
		return fmt.Errorf("%w: unknown output format %q", ErrConfigValidation, c.Output.DefaultFormat)
	}
	if c.Output.Precision < 0 {
		return fmt.Errorf("%w: precision must be >= 0, got %d", ErrConfigValidation, c.Output.Precision)
	}
	if c.Analysis.OutlierTolerance < 0 {
		return fmt.Errorf("%w: outlier_tolerance must be >= 0, got %g", ErrConfigValidation, c.Analysis.OutlierTolerance)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrConfigValidation, c.Analysis.Workers)
	}
	if c.Logging.Format != "" && c.Logging.Format != formatConsole && c.Logging.Format != formatJSON {
		return fmt.Errorf("%w: unknown logging format %q", ErrConfigValidation, c.Logging.Format)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides onto the
// configuration. lookupEnv is injectable for tests; pass os.LookupEnv.
func (c *Config) ApplyEnvOverrides(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv(EnvOutputFormat); ok && v != "" {
		c.Output.DefaultFormat = v
	}
}
