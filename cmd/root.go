// Package cmd provides the command-line interface for Strata with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--project, --max-depth, etc.) - highest priority
//	2. Individual environment variables (STRATA_LIMITS_MAX_DEPTH, etc.)
//	3. Configuration files (.strata.yml) - lowest priority
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/strata/internal/config"
	"github.com/conneroisu/strata/internal/loader"
	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/rules"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Component hierarchy and version compatibility engine",
	Long: `Strata maintains a tree of application components, enforces structural
invariants over that tree, detects dependency cycles, and resolves
semantic-version compatibility across components.

Key Features:
  • Hierarchy validation with pluggable structural rules
  • Dependency cycle detection across tree and dependency edges
  • Semantic-version constraint checking (^, ~, comparison operators)
  • Best-effort version conflict resolution

Quick Start:
  strata validate                 Validate the component tree
  strata tree                     Print the component hierarchy
  strata resolve core@1.0.0       Resolve a consistent version set
  strata versions core            Show a component's version history`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .strata.yml)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project file describing components and versions (default strata.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	bindLimitFlags(rootCmd.PersistentFlags())
}

// initConfig initializes the configuration system: an explicit --config
// file, otherwise .strata.yml in the working directory, with STRATA_*
// environment overrides (STRATA_LIMITS_MAX_DEPTH, STRATA_LOG_LEVEL, ...).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".strata")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix("STRATA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config files are fine; defaults cover everything.
	_ = viper.ReadInConfig()
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: rootCmd.ErrOrStderr(),
	})
}

func engineLimits(cfg *config.Config) rules.Limits {
	return rules.Limits{
		MaxChildren:     cfg.Limits.MaxChildren,
		MaxDepth:        cfg.Limits.MaxDepth,
		MaxDependencies: cfg.Limits.MaxDependencies,
	}
}

func loadProject(cfg *config.Config, logger logging.Logger) (*loader.Project, error) {
	return loader.Load(cfg.Project, engineLimits(cfg), logger)
}
