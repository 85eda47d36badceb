package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/rules"
	"github.com/conneroisu/strata/internal/types"
)

// stubBehavior implements types.Behavior with recordable answers.
type stubBehavior struct {
	initCalls    int
	cleanupCalls int
	canUnload    bool
	received     []*types.Message
	receiveErr   error
}

func newStubBehavior() *stubBehavior {
	return &stubBehavior{canUnload: true}
}

func (b *stubBehavior) Init() error { b.initCalls++; return nil }

func (b *stubBehavior) CanUnload() bool { return b.canUnload }

func (b *stubBehavior) Cleanup() error { b.cleanupCalls++; return nil }

func (b *stubBehavior) Receive(msg *types.Message) error {
	b.received = append(b.received, msg)
	return b.receiveErr
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(rules.Limits{
		MaxChildren:     100,
		MaxDepth:        10,
		MaxDependencies: 20,
	}, nil)
}

// buildTree constructs app(application) -> mod(module) -> feat(feature)
// and registers it.
func buildTree(t *testing.T, m *Manager) (app, mod, feat *types.Component) {
	t.Helper()
	app = types.NewComponent("app", types.LevelApplication)
	mod = types.NewComponent("mod", types.LevelModule)
	feat = types.NewComponent("feat", types.LevelFeature)

	require.NoError(t, m.AddRoot(app))
	require.NoError(t, m.AddChild(mod, app))
	require.NoError(t, m.AddChild(feat, mod))
	return app, mod, feat
}

func TestAddRoot(t *testing.T) {
	m := newTestManager(t)
	app := types.NewComponent("app", types.LevelApplication)

	require.NoError(t, m.AddRoot(app))

	got, ok := m.Lookup(app.ID)
	require.True(t, ok)
	assert.Equal(t, app, got)
}

func TestAddRoot_RejectsAttached(t *testing.T) {
	m := newTestManager(t)
	c := types.NewComponent("mod", types.LevelModule)
	c.ParentID = "somewhere"

	err := m.AddRoot(c)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyHasParent))
}

func TestAddChild(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)

	assert.Equal(t, app.ID, mod.ParentID)
	assert.Contains(t, app.ChildIDs, mod.ID)
	assert.True(t, m.Graph().HasPath(app.ID, mod.ID))
}

func TestAddChild_WeightOrdering(t *testing.T) {
	m := newTestManager(t)
	mod := types.NewComponent("mod", types.LevelModule)
	require.NoError(t, m.AddRoot(mod))

	app := types.NewComponent("app", types.LevelApplication)
	err := m.AddChild(app, mod)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidHierarchy))

	// Equal weights are rejected too.
	sibling := types.NewComponent("other", types.LevelModule)
	err = m.AddChild(sibling, mod)
	assert.True(t, errors.IsKind(err, errors.KindInvalidHierarchy))
}

func TestAddChild_AuxiliaryExempt(t *testing.T) {
	m := newTestManager(t)
	task := types.NewComponent("task", types.LevelTask)
	require.NoError(t, m.AddRoot(task))

	// A microservice has no weight and may sit under anything.
	svc := types.NewComponent("svc", types.LevelMicroservice)
	require.NoError(t, m.AddChild(svc, task))

	// And anything may sit under a microservice.
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddChild(app, svc))
}

func TestAddChild_AlreadyHasParent(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)
	_ = app

	other := types.NewComponent("other", types.LevelApplication)
	require.NoError(t, m.AddRoot(other))

	err := m.AddChild(mod, other)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyHasParent))
}

func TestAddChild_MaxChildren(t *testing.T) {
	m := NewManager(rules.Limits{MaxChildren: 2, MaxDepth: 10, MaxDependencies: 20}, nil)
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddRoot(app))

	for i := 0; i < 2; i++ {
		require.NoError(t, m.AddChild(types.NewComponent("mod", types.LevelModule), app))
	}

	err := m.AddChild(types.NewComponent("overflow", types.LevelModule), app)
	assert.True(t, errors.IsKind(err, errors.KindMaxChildrenExceeded))
	assert.Len(t, app.ChildIDs, 2)
}

func TestAddChild_InitRunsOnce(t *testing.T) {
	m := newTestManager(t)
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddRoot(app))

	behavior := newStubBehavior()
	mod := types.NewComponent("mod", types.LevelModule)
	mod.Behavior = behavior
	require.NoError(t, m.AddChild(mod, app))
	assert.Equal(t, 1, behavior.initCalls)

	// A later subtree move must not re-run Init.
	other := types.NewComponent("other", types.LevelApplication)
	require.NoError(t, m.AddRoot(other))
	require.NoError(t, m.MoveComponent(mod.ID, other.ID))
	assert.Equal(t, 1, behavior.initCalls)
}

func TestRemoveComponent_Subtree(t *testing.T) {
	m := newTestManager(t)
	app, mod, feat := buildTree(t, m)

	require.NoError(t, m.RemoveComponent(mod.ID))

	_, ok := m.Lookup(mod.ID)
	assert.False(t, ok)
	_, ok = m.Lookup(feat.ID)
	assert.False(t, ok)
	assert.Empty(t, app.ChildIDs)

	_, ok = m.Lookup(app.ID)
	assert.True(t, ok)
}

func TestRemoveComponent_BlockedByBehavior(t *testing.T) {
	m := newTestManager(t)
	_, mod, feat := buildTree(t, m)

	behavior := newStubBehavior()
	behavior.canUnload = false
	feat.Behavior = behavior

	err := m.RemoveComponent(mod.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCannotRemove))

	// Nothing was removed and no Cleanup ran.
	_, ok := m.Lookup(feat.ID)
	assert.True(t, ok)
	assert.Zero(t, behavior.cleanupCalls)
}

func TestRemoveComponent_BlockedByDependents(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)

	ui := types.NewComponent("ui", types.LevelModule)
	require.NoError(t, m.AddChild(ui, app))
	require.NoError(t, m.AddDependency(ui.ID, mod.ID))

	err := m.RemoveComponent(mod.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindHasDependents))
	assert.Equal(t, []string{ui.ID}, errors.Dependents(err))

	_, ok := m.Lookup(mod.ID)
	assert.True(t, ok)

	// After the dependent lets go, removal succeeds.
	m.RemoveDependency(ui.ID, mod.ID)
	require.NoError(t, m.RemoveComponent(mod.ID))
}

func TestRemoveComponent_InternalDependentsAllowed(t *testing.T) {
	m := newTestManager(t)
	_, mod, feat := buildTree(t, m)

	// A dependent inside the removed subtree must not block the removal.
	sibling := types.NewComponent("sibling", types.LevelFeature)
	require.NoError(t, m.AddChild(sibling, mod))
	require.NoError(t, m.AddDependency(sibling.ID, feat.ID))

	require.NoError(t, m.RemoveComponent(mod.ID))
}

func TestRemoveComponent_CleanupRuns(t *testing.T) {
	m := newTestManager(t)
	_, mod, feat := buildTree(t, m)

	behavior := newStubBehavior()
	feat.Behavior = behavior

	require.NoError(t, m.RemoveComponent(mod.ID))
	assert.Equal(t, 1, behavior.cleanupCalls)
}

func TestMoveComponent(t *testing.T) {
	m := newTestManager(t)
	app, mod, feat := buildTree(t, m)

	other := types.NewComponent("other", types.LevelSubmodule)
	require.NoError(t, m.AddChild(other, mod))

	require.NoError(t, m.MoveComponent(feat.ID, other.ID))

	assert.Equal(t, other.ID, feat.ParentID)
	assert.Contains(t, other.ChildIDs, feat.ID)
	assert.NotContains(t, mod.ChildIDs, feat.ID)
	assert.True(t, m.Graph().HasPath(app.ID, feat.ID))
}

func TestMoveComponent_ToSelf(t *testing.T) {
	m := newTestManager(t)
	_, mod, _ := buildTree(t, m)

	err := m.MoveComponent(mod.ID, mod.ID)
	assert.True(t, errors.IsKind(err, errors.KindCannotMoveToSelf))
}

func TestMoveComponent_ToDescendant(t *testing.T) {
	m := newTestManager(t)
	_, mod, feat := buildTree(t, m)

	err := m.MoveComponent(mod.ID, feat.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCannotMoveToDescendant))

	// The tree is untouched.
	assert.Equal(t, mod.ID, feat.ParentID)
}

func TestMoveComponent_SameParentNoOp(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)

	events := m.Watch()
	drain(events)

	require.NoError(t, m.MoveComponent(mod.ID, app.ID))
	assert.Empty(t, drain(events))
}

func TestMoveComponent_WeightOrdering(t *testing.T) {
	m := newTestManager(t)
	_, _, feat := buildTree(t, m)

	app2 := types.NewComponent("app2", types.LevelApplication)
	require.NoError(t, m.AddRoot(app2))

	err := m.MoveComponent(app2.ID, feat.ID)
	assert.True(t, errors.IsKind(err, errors.KindInvalidHierarchy))
}

func TestMoveComponent_DependencyCycle(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)

	lib := types.NewComponent("lib", types.LevelSubmodule)
	require.NoError(t, m.AddChild(lib, app))
	require.NoError(t, m.AddDependency(lib.ID, mod.ID))

	// lib depends on mod; hanging lib's subtree above mod would let the
	// structural edge close a loop, so moving mod under lib is rejected.
	err := m.MoveComponent(lib.ID, mod.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCircularDependency))
	assert.Equal(t, app.ID, lib.ParentID)
}

func TestReorderChildren(t *testing.T) {
	m := newTestManager(t)
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddRoot(app))

	a := types.NewComponent("a", types.LevelModule)
	b := types.NewComponent("b", types.LevelModule)
	c := types.NewComponent("c", types.LevelModule)
	for _, child := range []*types.Component{a, b, c} {
		require.NoError(t, m.AddChild(child, app))
	}

	require.NoError(t, m.ReorderChildren(app.ID, []string{c.ID, a.ID, b.ID}))
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, app.ChildIDs)
}

func TestReorderChildren_InvalidOrders(t *testing.T) {
	m := newTestManager(t)
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddRoot(app))

	a := types.NewComponent("a", types.LevelModule)
	b := types.NewComponent("b", types.LevelModule)
	require.NoError(t, m.AddChild(a, app))
	require.NoError(t, m.AddChild(b, app))

	cases := map[string][]string{
		"missing identity":   {a.ID},
		"unknown identity":   {a.ID, "ghost"},
		"duplicate identity": {a.ID, a.ID},
		"extra identity":     {a.ID, b.ID, "extra"},
	}
	for name, order := range cases {
		err := m.ReorderChildren(app.ID, order)
		assert.True(t, errors.IsKind(err, errors.KindInvalidReorder), name)
		assert.Equal(t, []string{a.ID, b.ID}, app.ChildIDs, name)
	}
}

func TestAddDependency_Unregistered(t *testing.T) {
	m := newTestManager(t)
	_, mod, _ := buildTree(t, m)

	err := m.AddDependency(mod.ID, "ghost")
	assert.True(t, errors.IsKind(err, errors.KindMissingDependency))

	err = m.AddDependency("ghost", mod.ID)
	assert.True(t, errors.IsKind(err, errors.KindMissingDependency))
}

func TestAddDependency_CycleLeavesStateUnchanged(t *testing.T) {
	m := newTestManager(t)
	app, mod, _ := buildTree(t, m)

	core := types.NewComponent("core", types.LevelModule)
	require.NoError(t, m.AddChild(core, app))
	require.NoError(t, m.AddDependency(mod.ID, core.ID))

	err := m.AddDependency(core.ID, mod.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCircularDependency))
	assert.False(t, core.HasDependency(mod.ID))
	assert.Empty(t, m.Graph().DependenciesOf(core.ID))
}

func TestAddChild_StaleAncestorDependencyDiscarded(t *testing.T) {
	m := newTestManager(t)
	app := types.NewComponent("app", types.LevelApplication)
	require.NoError(t, m.AddRoot(app))

	// The child arrives with a recorded dependency on its new parent,
	// which the fresh tree edge turns into a cycle. The attach succeeds
	// but the stale dependency is discarded from record and graph alike.
	mod := types.NewComponent("mod", types.LevelModule)
	mod.DependencyIDs[app.ID] = struct{}{}
	require.NoError(t, m.AddChild(mod, app))

	assert.False(t, mod.HasDependency(app.ID))
	assert.Empty(t, m.Graph().DependenciesOf(mod.ID))
	assert.False(t, m.Graph().HasPath(mod.ID, app.ID))
}

func TestAddChild_RestoresRecordedDependencies(t *testing.T) {
	m := newTestManager(t)
	app, _, _ := buildTree(t, m)

	core := types.NewComponent("core", types.LevelModule)
	require.NoError(t, m.AddChild(core, app))

	// A recorded dependency on an already-registered sibling survives the
	// attach and lands in the graph.
	ui := types.NewComponent("ui", types.LevelModule)
	ui.DependencyIDs[core.ID] = struct{}{}
	require.NoError(t, m.AddChild(ui, app))

	assert.True(t, ui.HasDependency(core.ID))
	assert.Equal(t, []string{core.ID}, m.Graph().DependenciesOf(ui.ID))
}

// drain empties a watcher channel and returns what it held.
func drain(ch <-chan types.ChangeEvent) []types.ChangeEvent {
	var out []types.ChangeEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
