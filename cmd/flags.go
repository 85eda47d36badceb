package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/strata/internal/config"
)

// bindLimitFlags registers the structural limit flags and binds them to
// the limits.* configuration keys.
func bindLimitFlags(fs *pflag.FlagSet) {
	fs.Int("max-children", config.DefaultMaxChildren, "maximum children per component")
	fs.Int("max-depth", config.DefaultMaxDepth, "maximum ancestor chain length")
	fs.Int("max-dependencies", config.DefaultMaxDependencies, "maximum dependencies per component")

	_ = viper.BindPFlag("limits.max_children", fs.Lookup("max-children"))
	_ = viper.BindPFlag("limits.max_depth", fs.Lookup("max-depth"))
	_ = viper.BindPFlag("limits.max_dependencies", fs.Lookup("max-dependencies"))
}
