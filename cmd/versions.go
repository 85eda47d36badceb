package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/strata/internal/config"
	"github.com/conneroisu/strata/internal/loader"
	"github.com/conneroisu/strata/internal/manifest"
	"github.com/conneroisu/strata/internal/semver"
)

var (
	versionsRegister  string
	versionsBump      string
	versionsChangelog string
)

// versionsCmd represents the versions command
var versionsCmd = &cobra.Command{
	Use:   "versions [component]",
	Short: "Show or mutate component version information",
	Long: `List registered versions, register a new one, or bump the current
version of a component. Mutations are written back to the project file.

Examples:
  strata versions                      # list every component's current version
  strata versions core                 # show core's available versions and history
  strata versions core --register 1.2.0
  strata versions core --bump minor`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVersionsCommand,
}

func init() {
	rootCmd.AddCommand(versionsCmd)

	versionsCmd.Flags().StringVar(&versionsRegister, "register", "", "register a new version and set it current")
	versionsCmd.Flags().StringVar(&versionsBump, "bump", "", "bump the current version (major, minor, patch)")
	versionsCmd.Flags().StringVar(&versionsChangelog, "changelog", "", "changelog note for the new version")
}

func runVersionsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	project, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	if versionsRegister != "" || versionsBump != "" {
		if len(args) != 1 {
			return fmt.Errorf("a component name is required to register or bump")
		}
		return mutateVersions(cmd, cfg, project, args[0])
	}

	if len(args) == 1 {
		return showComponentVersions(cmd, project, args[0])
	}

	for _, id := range project.Manifest.Identifiers() {
		current, _ := project.Manifest.CurrentVersion(id)
		cmd.Printf("%s@%s\n", id, current.String())
	}
	return nil
}

func mutateVersions(cmd *cobra.Command, cfg *config.Config, project *loader.Project, component string) error {
	if versionsRegister != "" && versionsBump != "" {
		return fmt.Errorf("--register and --bump are mutually exclusive")
	}

	// Persist after each manifest mutation.
	project.Manifest.OnSave(func(_ *manifest.Manifest) error {
		return loader.Save(project, cfg.Project)
	})

	switch {
	case versionsRegister != "":
		if err := project.Manifest.RegisterRelease(component, versionsRegister, versionsChangelog, ""); err != nil {
			return err
		}
		cmd.Printf("%s@%s registered\n", component, versionsRegister)
	case versionsBump != "":
		kind, err := semver.ParseBumpKind(versionsBump)
		if err != nil {
			return err
		}
		next, err := project.Manifest.Bump(component, kind)
		if err != nil {
			return err
		}
		cmd.Printf("%s bumped to %s\n", component, next.String())
	}
	return nil
}

func showComponentVersions(cmd *cobra.Command, project *loader.Project, component string) error {
	current, ok := project.Manifest.CurrentVersion(component)
	if !ok {
		return fmt.Errorf("no version information for %q", component)
	}

	cmd.Printf("%s current: %s\n", component, current.String())

	cmd.Println("available:")
	for _, v := range project.Manifest.AvailableVersions(component) {
		cmd.Printf("  %s\n", v.String())
	}

	history := project.Manifest.History(component)
	if len(history) > 0 {
		cmd.Println("history:")
		for _, record := range history {
			line := fmt.Sprintf("  %s (%s)", record.Version.String(),
				record.Timestamp.Format(time.RFC3339))
			if record.Changelog != "" {
				line += " " + record.Changelog
			}
			cmd.Println(line)
		}
	}
	return nil
}
