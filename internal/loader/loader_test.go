package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/strata/internal/rules"
	"github.com/conneroisu/strata/internal/types"
)

const sampleProject = `
components:
  - name: shop
    level: application
    children:
      - name: core
        level: module
        capabilities:
          storage: postgres
      - name: ui
        level: module
        dependencies: [core]
        children:
          - name: checkout
            level: feature
versions:
  core:
    current: 1.5.0
    available: [1.0.0, 1.5.0]
  ui:
    current: 1.0.0
    history:
      - version: 1.0.0
        timestamp: 2026-01-10T12:00:00Z
        changelog: first release
compatibility:
  ui:
    1.0.0:
      core: ^1.0.0
`

func testLimits() rules.Limits {
	return rules.Limits{MaxChildren: 100, MaxDepth: 10, MaxDependencies: 20}
}

func parseSample(t *testing.T) *Project {
	t.Helper()
	project, err := Parse([]byte(sampleProject), testLimits(), nil)
	require.NoError(t, err)
	return project
}

func TestParse_Tree(t *testing.T) {
	project := parseSample(t)

	require.Len(t, project.RootIDs, 1)
	shop, ok := project.ComponentByName("shop")
	require.True(t, ok)
	assert.Equal(t, types.LevelApplication, shop.Level)
	assert.Equal(t, project.RootIDs[0], shop.ID)
	assert.Len(t, shop.ChildIDs, 2)

	core, ok := project.ComponentByName("core")
	require.True(t, ok)
	assert.Equal(t, shop.ID, core.ParentID)
	assert.Equal(t, "postgres", core.Capabilities["storage"])

	checkout, ok := project.ComponentByName("checkout")
	require.True(t, ok)
	assert.Equal(t, types.LevelFeature, checkout.Level)
}

func TestParse_Dependencies(t *testing.T) {
	project := parseSample(t)

	ui, _ := project.ComponentByName("ui")
	core, _ := project.ComponentByName("core")
	assert.True(t, ui.HasDependency(core.ID))
	assert.True(t, project.Manager.Graph().HasPath(ui.ID, core.ID))
}

func TestParse_Versions(t *testing.T) {
	project := parseSample(t)

	current, ok := project.Manifest.CurrentVersion("core")
	require.True(t, ok)
	assert.Equal(t, "1.5.0", current.String())
	assert.Len(t, project.Manifest.AvailableVersions("core"), 2)

	history := project.Manifest.History("ui")
	require.Len(t, history, 1)
	assert.Equal(t, "first release", history[0].Changelog)
	assert.Equal(t, 2026, history[0].Timestamp.Year())

	reqs := project.Manifest.Requirements("ui", "1.0.0")
	require.NotNil(t, reqs)
	assert.Equal(t, "^1.0.0", reqs["core"])
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "components: [",
		"empty name":     "components:\n  - level: module\n",
		"unknown level":  "components:\n  - name: x\n    level: galaxy\n",
		"duplicate name": "components:\n  - name: x\n    level: module\n  - name: x\n    level: module\n",
		"unknown dependency": `components:
  - name: x
    level: module
    dependencies: [ghost]
`,
		"weight violation": `components:
  - name: mod
    level: module
    children:
      - name: app
        level: application
`,
		"bad version": "versions:\n  core:\n    current: nope\n",
		"bad constraint": `compatibility:
  ui:
    1.0.0:
      core: "!!"
`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc), testLimits(), nil)
		assert.Error(t, err, name)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	project := parseSample(t)
	doc := project.Snapshot()

	require.Len(t, doc.Components, 1)
	shop := doc.Components[0]
	assert.Equal(t, "shop", shop.Name)
	assert.Equal(t, "application", shop.Level)
	require.Len(t, shop.Children, 2)
	assert.Equal(t, "core", shop.Children[0].Name)
	assert.Equal(t, []string{"core"}, shop.Children[1].Dependencies)

	assert.Equal(t, "1.5.0", doc.Versions["core"].Current)
	assert.Equal(t, "^1.0.0", doc.Compatibility["ui"]["1.0.0"]["core"])
}

func TestSaveAndLoad(t *testing.T) {
	project := parseSample(t)
	path := filepath.Join(t.TempDir(), "strata.yml")

	require.NoError(t, Save(project, path))

	reloaded, err := Load(path, testLimits(), nil)
	require.NoError(t, err)

	assert.Equal(t, project.Manager.Count(), reloaded.Manager.Count())
	_, ok := reloaded.ComponentByName("checkout")
	assert.True(t, ok)

	current, ok := reloaded.Manifest.CurrentVersion("core")
	require.True(t, ok)
	assert.Equal(t, "1.5.0", current.String())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"), testLimits(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
