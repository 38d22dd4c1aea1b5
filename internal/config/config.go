// Package config handles application configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// ReportConfig controls which outputs a run produces.
type ReportConfig struct {
	// OutputDir receives generated HTML and Excel files.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// Tables selects and orders the rendered tables.
	Tables []string `yaml:"tables" validate:"min=1,dive,oneof=table1 table2 table3 table4"`

	HTML    bool `yaml:"html"`
	Excel   bool `yaml:"excel"`
	Verbose bool `yaml:"verbose"`
}

// Config is the root application configuration.
type Config struct {
	Logging logging.Config `yaml:"logging"`
	Report  ReportConfig   `yaml:"report"`
	Risk    enrich.Config  `yaml:"risk"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Report: ReportConfig{
			OutputDir: "./reports",
			Tables:    []string{"table1", "table2", "table3", "table4"},
		},
		Risk: enrich.DefaultConfig(),
	}
}

// Load reads a YAML configuration file, layering it over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Report); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	validLevels := map[logging.LogLevel]bool{
		logging.LevelDebug: true,
		logging.LevelInfo:  true,
		logging.LevelWarn:  true,
		logging.LevelError: true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validFormats := map[logging.LogFormat]bool{
		logging.FormatText: true,
		logging.FormatJSON: true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Risk.Thresholds.Critical < c.Risk.Thresholds.High ||
		c.Risk.Thresholds.High < c.Risk.Thresholds.Medium {
		return fmt.Errorf("risk thresholds must be ordered: critical >= high >= medium")
	}
	return nil
}
