// Package config provides configuration management for Strata using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files (.strata.yml) and
// environment variable overrides with the STRATA_ prefix. It manages the
// engine's structural limits, the project file location, and logging
// options.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default structural limits, applied when the configuration does not set
// them explicitly.
const (
	DefaultMaxChildren     = 100
	DefaultMaxDepth        = 10
	DefaultMaxDependencies = 20
)

type Config struct {
	// Project is the path to the project file describing the component
	// tree and version manifest.
	Project string       `yaml:"project"`
	Log     LogConfig    `yaml:"log"`
	Limits  LimitsConfig `yaml:"limits"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LimitsConfig holds the structural limits enforced by the rule engine.
type LimitsConfig struct {
	MaxChildren     int `yaml:"max_children"`
	MaxDepth        int `yaml:"max_depth"`
	MaxDependencies int `yaml:"max_dependencies"`
}

// DefaultLimits returns the default structural limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxChildren:     DefaultMaxChildren,
		MaxDepth:        DefaultMaxDepth,
		MaxDependencies: DefaultMaxDependencies,
	}
}

// Load builds a Config from the current viper state, applying defaults
// for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Project == "" {
		config.Project = "strata.yml"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	// Viper's nested-key handling can leave zero values behind when keys
	// are set through env vars, so consult it directly for the limits.
	if viper.IsSet("limits.max_children") {
		config.Limits.MaxChildren = viper.GetInt("limits.max_children")
	}
	if viper.IsSet("limits.max_depth") {
		config.Limits.MaxDepth = viper.GetInt("limits.max_depth")
	}
	if viper.IsSet("limits.max_dependencies") {
		config.Limits.MaxDependencies = viper.GetInt("limits.max_dependencies")
	}

	if config.Limits.MaxChildren == 0 {
		config.Limits.MaxChildren = DefaultMaxChildren
	}
	if config.Limits.MaxDepth == 0 {
		config.Limits.MaxDepth = DefaultMaxDepth
	}
	if config.Limits.MaxDependencies == 0 {
		config.Limits.MaxDependencies = DefaultMaxDependencies
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for values the engine cannot work
// with.
func (c *Config) Validate() error {
	if c.Limits.MaxChildren < 1 {
		return fmt.Errorf("limits.max_children must be positive, got %d", c.Limits.MaxChildren)
	}
	if c.Limits.MaxDepth < 1 {
		return fmt.Errorf("limits.max_depth must be positive, got %d", c.Limits.MaxDepth)
	}
	if c.Limits.MaxDependencies < 1 {
		return fmt.Errorf("limits.max_dependencies must be positive, got %d", c.Limits.MaxDependencies)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}
