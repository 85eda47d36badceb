package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/strata/internal/loader"
	"github.com/conneroisu/strata/internal/types"
)

var treeShowDeps bool

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the component hierarchy",
	Long: `Render the component tree with hierarchy levels and current versions.

Examples:
  strata tree
  strata tree --deps     # include dependency edges`,
	RunE: runTreeCommand,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().BoolVar(&treeShowDeps, "deps", false, "show dependency edges")
}

func runTreeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	project, err := loadProject(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	for _, rootID := range project.RootIDs {
		root, ok := project.Manager.FindByID(rootID)
		if !ok {
			continue
		}
		printTree(cmd, project, root, "", true, true)
	}
	return nil
}

func printTree(cmd *cobra.Command, project *loader.Project, c *types.Component, prefix string, last, isRoot bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	if isRoot {
		connector = ""
		childPrefix = ""
	}

	cmd.Printf("%s%s%s\n", prefix, connector, describeComponent(project, c))

	for i, childID := range c.ChildIDs {
		child, ok := project.Manager.FindByID(childID)
		if !ok {
			continue
		}
		printTree(cmd, project, child, childPrefix, i == len(c.ChildIDs)-1, false)
	}
}

func describeComponent(project *loader.Project, c *types.Component) string {
	label := fmt.Sprintf("%s (%s)", c.Name, c.Level)

	if current, ok := project.Manifest.CurrentVersion(c.Name); ok {
		label += " v" + current.String()
	}

	if treeShowDeps && len(c.DependencyIDs) > 0 {
		var names []string
		for _, depID := range project.Manager.Graph().DependenciesOf(c.ID) {
			if dep, ok := project.Manager.FindByID(depID); ok {
				names = append(names, dep.Name)
			}
		}
		if len(names) > 0 {
			label += " -> " + strings.Join(names, ", ")
		}
	}
	return label
}
