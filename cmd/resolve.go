package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/strata/internal/resolver"
	"github.com/conneroisu/strata/internal/semver"
)

var resolveCheck bool

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve component@version [component@version ...]",
	Short: "Resolve a consistent version assignment",
	Long: `Greedily resolve a consistent version assignment across the requested
components, falling back from each desired version to the highest
compatible alternative when needed. Resolution is best-effort and
first-fit; it does not backtrack across earlier choices.

With --check, verify the requested assignment as-is against the loaded
set formed by the other requests, without falling back.

Examples:
  strata resolve core@1.0.0 ui@1.0.0
  strata resolve --check ui@1.0.0 core@2.0.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolveCommand,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveCheck, "check", false, "check the assignment without falling back")
}

func runResolveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	project, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	requests := make([]resolver.Request, 0, len(args))
	for _, arg := range args {
		component, version, ok := strings.Cut(arg, "@")
		if !ok || component == "" || version == "" {
			return fmt.Errorf("invalid request %q (want component@version)", arg)
		}
		requests = append(requests, resolver.Request{Component: component, Version: version})
	}

	res := resolver.New(project.Manifest, logger)

	if resolveCheck {
		return runCompatibilityCheck(cmd, res, requests)
	}

	resolved, err := res.ResolveConflicts(requests)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("%s@%s\n", name, resolved[name].String())
	}
	return nil
}

func runCompatibilityCheck(cmd *cobra.Command, res *resolver.Resolver, requests []resolver.Request) error {
	loaded := make(map[string]semver.Version, len(requests))
	for _, req := range requests {
		v, err := semver.Parse(req.Version)
		if err != nil {
			return err
		}
		loaded[req.Component] = v
	}

	for _, req := range requests {
		if err := res.CheckCompatibility(req.Component, req.Version, loaded); err != nil {
			return err
		}
		cmd.Printf("%s@%s: compatible\n", req.Component, req.Version)
	}
	return nil
}
