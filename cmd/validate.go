package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/strata/internal/registry"
)

var validateStrict bool

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [root]",
	Short: "Validate the component tree",
	Long: `Walk the component tree from each root (or the named root), applying
every structural rule to every node and reporting duplicate identities,
parent/child mismatches, rule violations, and orphans.

Examples:
  strata validate              # validate every root in the project file
  strata validate shop         # validate only the tree rooted at "shop"
  strata validate --strict     # treat warnings as failures`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as failures")
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	project, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	rootIDs := project.RootIDs
	if len(args) == 1 {
		root, ok := project.ComponentByName(args[0])
		if !ok {
			return fmt.Errorf("unknown component %q", args[0])
		}
		rootIDs = []string{root.ID}
	}

	failed := false
	for _, rootID := range rootIDs {
		root, _ := project.Manager.FindByID(rootID)
		report := project.Manager.Validate(rootID)
		printReport(cmd, root.Name, report)
		if !report.Valid || (validateStrict && len(report.Warnings) > 0) {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func printReport(cmd *cobra.Command, rootName string, report *registry.Report) {
	status := "ok"
	if !report.Valid {
		status = "INVALID"
	}
	cmd.Printf("%s: %s (%d reachable, %d orphaned)\n",
		rootName, status, report.ReachableCount, report.OrphanCount)

	for _, finding := range report.Errors {
		cmd.Printf("  %s\n", finding.String())
	}
	for _, finding := range report.Warnings {
		cmd.Printf("  %s\n", finding.String())
	}
}
