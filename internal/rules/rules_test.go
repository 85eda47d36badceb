package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/types"
)

type mapHierarchy map[string]*types.Component

func (h mapHierarchy) Lookup(id string) (*types.Component, bool) {
	c, ok := h[id]
	return c, ok
}

func component(id string, level types.HierarchyLevel) *types.Component {
	return &types.Component{ID: id, Name: id, Level: level}
}

func TestWeightOrdering(t *testing.T) {
	parent := component("parent", types.LevelModule)
	child := component("child", types.LevelFeature)
	parent.ChildIDs = []string{"child"}
	child.ParentID = "parent"
	h := mapHierarchy{"parent": parent, "child": child}

	rule := WeightOrdering{}
	assert.NoError(t, rule.Check(parent, h))

	// Equal weight on a child violates the ordering.
	child.Level = types.LevelModule
	err := rule.Check(parent, h)
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindInvalidHierarchy))
}

func TestWeightOrdering_AuxiliarySkipped(t *testing.T) {
	parent := component("parent", types.LevelTask)
	svc := component("svc", types.LevelMicroservice)
	parent.ChildIDs = []string{"svc"}
	h := mapHierarchy{"parent": parent, "svc": svc}

	assert.NoError(t, WeightOrdering{}.Check(parent, h))

	// An auxiliary parent tolerates any child.
	aux := component("aux", types.LevelUtility)
	app := component("app", types.LevelApplication)
	aux.ChildIDs = []string{"app"}
	h = mapHierarchy{"aux": aux, "app": app}
	assert.NoError(t, WeightOrdering{}.Check(aux, h))
}

func TestWeightOrdering_UnresolvedChildSkipped(t *testing.T) {
	parent := component("parent", types.LevelModule)
	parent.ChildIDs = []string{"ghost"}
	assert.NoError(t, WeightOrdering{}.Check(parent, mapHierarchy{"parent": parent}))
}

func TestMaxDepth(t *testing.T) {
	h := mapHierarchy{}
	var leaf *types.Component
	for i := 0; i < 5; i++ {
		c := component(fmt.Sprintf("c%d", i), types.LevelModule)
		if i > 0 {
			c.ParentID = fmt.Sprintf("c%d", i-1)
		}
		h[c.ID] = c
		leaf = c
	}

	assert.NoError(t, MaxDepth{Limit: 4}.Check(leaf, h))

	err := MaxDepth{Limit: 3}.Check(leaf, h)
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindInvalidHierarchy))
}

func TestMaxChildren(t *testing.T) {
	parent := component("parent", types.LevelModule)
	parent.ChildIDs = []string{"a", "b", "c"}

	assert.NoError(t, MaxChildren{Limit: 3}.Check(parent, nil))

	err := MaxChildren{Limit: 2}.Check(parent, nil)
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindMaxChildrenExceeded))
}

func TestMaxDependencies(t *testing.T) {
	c := component("c", types.LevelModule)
	c.DependencyIDs = map[string]struct{}{"a": {}, "b": {}}

	assert.NoError(t, MaxDependencies{Limit: 2}.Check(c, nil))

	err := MaxDependencies{Limit: 1}.Check(c, nil)
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindInvalidHierarchy))
}

func TestDefault(t *testing.T) {
	rules := Default(Limits{MaxChildren: 10, MaxDepth: 5, MaxDependencies: 3})
	require.Len(t, rules, 4)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	assert.Equal(t, []string{
		"weight-ordering", "max-depth", "max-children", "max-dependencies",
	}, names)
}
