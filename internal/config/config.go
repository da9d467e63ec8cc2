// Package config holds neurolint's project-local configuration: pipeline
// defaults, backup retention, and baseline exclusion directory names, decoded from
// YAML at a well-known project-local path.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"neurolint/internal/backup"
	"neurolint/internal/logging"
	"neurolint/internal/rulestore"
)

// DefaultPath is the project-local config file path.
const DefaultPath = ".neurolint/config.yaml"

// PipelineConfig holds defaults for pipeline invocations.
type PipelineConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	QuarantineDefault   bool    `yaml:"quarantine_default"`
	Verbose             bool    `yaml:"verbose"`
}

// BackupConfig holds Backup Store defaults.
type BackupConfig struct {
	Root      string `yaml:"root"`
	Retention int    `yaml:"retention"`
}

// RuleStoreConfig holds Rule Store defaults.
type RuleStoreConfig struct {
	Path string `yaml:"path"`
}

// BaselineConfig holds snapshot exclusion defaults.
type BaselineConfig struct {
	Exclusions []string `yaml:"exclusions"`
}

// ErrorsConfig holds Error Aggregator caps.
type ErrorsConfig struct {
	MaxErrors   int `yaml:"max_errors"`
	MaxWarnings int `yaml:"max_warnings"`
}

// Config is neurolint's top-level project configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Backup    BackupConfig    `yaml:"backup"`
	RuleStore RuleStoreConfig `yaml:"rule_store"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Errors    ErrorsConfig    `yaml:"errors"`
}

// DefaultConfig returns neurolint's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ConfidenceThreshold: rulestore.DefaultConfidenceThreshold,
			QuarantineDefault:   false,
			Verbose:             false,
		},
		Backup: BackupConfig{
			Root:      backup.DefaultRoot,
			Retention: backup.DefaultRetention,
		},
		RuleStore: RuleStoreConfig{
			Path: rulestore.DefaultPath,
		},
		Baseline: BaselineConfig{
			Exclusions: []string{".git", "node_modules", ".neurolint", ".neurolint-backups", "dist", "build"},
		},
		Errors: ErrorsConfig{
			MaxErrors:   100,
			MaxWarnings: 100,
		},
	}
}

// Load reads configuration from a YAML file at path, falling back to
// DefaultConfig (with environment overrides still applied) when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.PipelineDebug("loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Pipeline("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save persists cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: failed to create directory for %s: %w", path, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies NEUROLINT_-prefixed environment overrides on
// top of whatever was loaded from YAML (or the defaults); env wins if set.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NEUROLINT_BACKUP_ROOT"); v != "" {
		c.Backup.Root = v
	}
	if v := os.Getenv("NEUROLINT_RULES_PATH"); v != "" {
		c.RuleStore.Path = v
	}
	if v := os.Getenv("NEUROLINT_CONFIDENCE_THRESHOLD"); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			c.Pipeline.ConfidenceThreshold = f
		}
	}
}
