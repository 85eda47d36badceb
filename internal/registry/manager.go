package registry

import (
	"context"

	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/graph"
	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/rules"
	"github.com/conneroisu/strata/internal/types"
)

// Manager is the hierarchy facade owning the component registry, the
// dependency graph, and the structural rule set. Every mutation is
// validated before it is applied: a rejected operation leaves registry
// and graph exactly as they were.
type Manager struct {
	registry *Registry
	graph    *graph.DependencyGraph
	rules    []rules.Rule
	limits   rules.Limits
	logger   logging.Logger
	watchers []chan types.ChangeEvent

	// initialized tracks which components have had their Init hook run,
	// so re-registration through a subtree walk never runs it twice.
	initialized map[string]struct{}
}

// NewManager creates a hierarchy manager with the default rule set for
// the given limits. A nil logger falls back to a no-op logger.
func NewManager(limits rules.Limits, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{
		registry:    NewRegistry(),
		graph:       graph.New(),
		rules:       rules.Default(limits),
		limits:      limits,
		logger:      logger.WithComponent("hierarchy"),
		initialized: make(map[string]struct{}),
	}
}

// AddRule registers an additional structural rule. Rules only run during
// Validate; mutations enforce their own preconditions directly.
func (m *Manager) AddRule(rule rules.Rule) {
	m.rules = append(m.rules, rule)
}

// Graph exposes the dependency graph for read-only path queries.
func (m *Manager) Graph() *graph.DependencyGraph {
	return m.graph
}

// Lookup resolves an identity to its component record. It implements the
// rules.Hierarchy view.
func (m *Manager) Lookup(id string) (*types.Component, bool) {
	return m.registry.Get(id)
}

// Register stores a component record in the arena without attaching it
// anywhere and without emitting events. Callers building a subtree in
// memory register each record first, then link them with AddChild; the
// arena is what resolves child identities during recursive registration.
func (m *Manager) Register(c *types.Component) {
	m.registry.Register(c)
	m.graph.Register(c.ID)
}

// AddRoot registers a parentless component, together with any subtree it
// already carries, without attaching it to anything.
func (m *Manager) AddRoot(c *types.Component) error {
	if c.ParentID != "" {
		return strataerrors.ErrAlreadyHasParent(c.ID)
	}
	m.registerSubtree(c)
	m.emit(types.ChangeChildAdded, c)
	return nil
}

// AddChild attaches child under parent. It fails if the child already has
// a parent, if the weight ordering would be violated, or if the parent is
// already at the fan-out limit. On success the child and any descendants
// it brings with it are registered, the structural edge is recorded, and
// a child_added event is emitted.
func (m *Manager) AddChild(child, parent *types.Component) error {
	if _, ok := m.registry.Get(parent.ID); !ok {
		return strataerrors.Newf(strataerrors.KindInvalidHierarchy,
			"parent %s is not registered", parent.ID).WithComponent(child.ID)
	}
	if child.ParentID != "" {
		return strataerrors.ErrAlreadyHasParent(child.ID)
	}
	if err := checkWeightOrdering(child, parent); err != nil {
		return err
	}
	if len(parent.ChildIDs) >= m.limits.MaxChildren {
		return strataerrors.ErrMaxChildrenExceeded(parent.ID, m.limits.MaxChildren)
	}
	// The child may still be known to the graph through dependency edges;
	// attaching it must not close a cycle through them.
	if m.graph.Registered(child.ID) && m.graph.HasPath(child.ID, parent.ID) {
		return strataerrors.ErrCircularDependency(parent.ID, child.ID)
	}

	child.ParentID = parent.ID
	parent.ChildIDs = append(parent.ChildIDs, child.ID)
	// The new tree edge must be in the graph before the subtree's recorded
	// dependencies are restored, so a stale dependency on an ancestor is
	// caught by the cycle check rather than restored ahead of the edge.
	m.graph.AddStructural(parent.ID, child.ID)
	m.registerSubtree(child)

	m.logger.Debug(context.Background(), "child added",
		"child", child.ID, "parent", parent.ID, "level", string(child.Level))
	m.emit(types.ChangeChildAdded, child)
	return nil
}

// RemoveComponent removes a component and its whole subtree. It fails if
// any node in the subtree refuses to unload, or if components outside the
// subtree still depend on a node inside it; the blocking dependents are
// carried in the error. Descendants are removed first, depth-first, and a
// component_removed event is emitted per removed node.
func (m *Manager) RemoveComponent(id string) error {
	target, ok := m.registry.Get(id)
	if !ok {
		return strataerrors.New(strataerrors.KindCannotRemove,
			"component is not registered").WithComponent(id)
	}

	subtree := m.collectSubtree(target)
	inSubtree := make(map[string]struct{}, len(subtree))
	for _, c := range subtree {
		inSubtree[c.ID] = struct{}{}
	}

	// Validate the whole subtree before touching anything so a rejected
	// removal leaves no partial state behind.
	for _, c := range subtree {
		if c.Behavior != nil && !c.Behavior.CanUnload() {
			return strataerrors.ErrCannotRemove(c.ID)
		}
	}
	for _, c := range subtree {
		var outside []string
		for _, dep := range m.graph.DependentsOf(c.ID) {
			if _, internal := inSubtree[dep]; !internal {
				outside = append(outside, dep)
			}
		}
		if len(outside) > 0 {
			return strataerrors.ErrHasDependents(c.ID, outside)
		}
	}

	// Depth-first: children before parents. collectSubtree is preorder,
	// so walk it backwards.
	for i := len(subtree) - 1; i >= 0; i-- {
		c := subtree[i]
		m.graph.Unregister(c.ID)
		m.registry.Remove(c.ID)
		delete(m.initialized, c.ID)
		if c.Behavior != nil {
			if err := c.Behavior.Cleanup(); err != nil {
				m.logger.Warn(context.Background(), err, "component cleanup failed",
					"id", c.ID)
			}
		}
		m.emit(types.ChangeComponentRemoved, c)
	}

	if target.ParentID != "" {
		if parent, ok := m.registry.Get(target.ParentID); ok {
			parent.ChildIDs = removeID(parent.ChildIDs, target.ID)
		}
		target.ParentID = ""
	}

	m.logger.Debug(context.Background(), "component removed",
		"id", id, "subtree_size", len(subtree))
	return nil
}

// MoveComponent reattaches a component under a new parent as an edge
// swap. It fails on self-moves, moves under a descendant, weight or
// fan-out violations, and moves that would close a dependency cycle.
func (m *Manager) MoveComponent(id, newParentID string) error {
	component, ok := m.registry.Get(id)
	if !ok {
		return strataerrors.Newf(strataerrors.KindInvalidHierarchy,
			"component %s is not registered", id).WithComponent(id)
	}
	newParent, ok := m.registry.Get(newParentID)
	if !ok {
		return strataerrors.Newf(strataerrors.KindInvalidHierarchy,
			"parent %s is not registered", newParentID).WithComponent(id)
	}
	if id == newParentID {
		return strataerrors.New(strataerrors.KindCannotMoveToSelf,
			"cannot move a component under itself").WithComponent(id)
	}
	if component.ParentID == newParentID {
		return nil
	}
	if m.isDescendant(newParentID, id) {
		return strataerrors.New(strataerrors.KindCannotMoveToDescendant,
			"cannot move a component under one of its descendants").
			WithComponent(id).
			WithContext("target", newParentID)
	}
	if err := checkWeightOrdering(component, newParent); err != nil {
		return err
	}
	if len(newParent.ChildIDs) >= m.limits.MaxChildren {
		return strataerrors.ErrMaxChildrenExceeded(newParentID, m.limits.MaxChildren)
	}
	// Descendant moves are already rejected above, so any remaining path
	// from the component to the new parent runs through dependency edges.
	if m.graph.HasPath(id, newParentID) {
		return strataerrors.ErrCircularDependency(newParentID, id)
	}

	if component.ParentID != "" {
		if oldParent, ok := m.registry.Get(component.ParentID); ok {
			oldParent.ChildIDs = removeID(oldParent.ChildIDs, id)
		}
		m.graph.RemoveStructural(component.ParentID, id)
	}
	component.ParentID = newParentID
	newParent.ChildIDs = append(newParent.ChildIDs, id)
	m.graph.AddStructural(newParentID, id)

	m.logger.Debug(context.Background(), "component moved",
		"id", id, "parent", newParentID)
	m.emit(types.ChangeComponentMoved, component)
	return nil
}

// ReorderChildren replaces the ordered children sequence of parent. The
// new order must be exactly a permutation of the current children; any
// added, removed, or duplicated identity is rejected and the sequence is
// left unchanged.
func (m *Manager) ReorderChildren(parentID string, newOrder []string) error {
	parent, ok := m.registry.Get(parentID)
	if !ok {
		return strataerrors.Newf(strataerrors.KindInvalidReorder,
			"parent %s is not registered", parentID).WithComponent(parentID)
	}
	if len(newOrder) != len(parent.ChildIDs) {
		return strataerrors.Newf(strataerrors.KindInvalidReorder,
			"new order has %d identities, parent has %d children",
			len(newOrder), len(parent.ChildIDs)).WithComponent(parentID)
	}

	current := make(map[string]struct{}, len(parent.ChildIDs))
	for _, id := range parent.ChildIDs {
		current[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(newOrder))
	for _, id := range newOrder {
		if _, ok := current[id]; !ok {
			return strataerrors.Newf(strataerrors.KindInvalidReorder,
				"%s is not a child of %s", id, parentID).WithComponent(parentID)
		}
		if _, dup := seen[id]; dup {
			return strataerrors.Newf(strataerrors.KindInvalidReorder,
				"%s appears more than once in the new order", id).
				WithComponent(parentID)
		}
		seen[id] = struct{}{}
	}

	parent.ChildIDs = append([]string(nil), newOrder...)
	m.emit(types.ChangeChildrenReordered, parent)
	return nil
}

// AddDependency records that dependent requires dependency. The edge is
// stored both in the component's own dependency set and in the graph; a
// cycle through any mix of structural and dependency edges is rejected.
func (m *Manager) AddDependency(dependentID, dependencyID string) error {
	dependent, ok := m.registry.Get(dependentID)
	if !ok {
		return strataerrors.ErrMissingDependency(dependentID, dependentID)
	}
	if _, ok := m.registry.Get(dependencyID); !ok {
		return strataerrors.ErrMissingDependency(dependentID, dependencyID)
	}

	if err := m.graph.AddDependency(dependentID, dependencyID); err != nil {
		return err
	}
	if dependent.DependencyIDs == nil {
		dependent.DependencyIDs = make(map[string]struct{})
	}
	dependent.DependencyIDs[dependencyID] = struct{}{}
	return nil
}

// RemoveDependency removes a dependency edge from both the component's
// set and the graph. Removing an absent edge is a no-op.
func (m *Manager) RemoveDependency(dependentID, dependencyID string) {
	if dependent, ok := m.registry.Get(dependentID); ok {
		delete(dependent.DependencyIDs, dependencyID)
	}
	m.graph.RemoveDependency(dependentID, dependencyID)
}

// registerSubtree registers c and every descendant it carries in the
// registry and the graph, restoring structural edges and any dependency
// edges whose targets are known. A recorded dependency that would close
// a cycle is discarded from the record as well as the graph, so the two
// representations never disagree. Init hooks run once per newly
// registered component; their errors are logged, not fatal.
func (m *Manager) registerSubtree(root *types.Component) {
	for _, c := range m.collectSubtree(root) {
		m.registry.Register(c)
		m.graph.Register(c.ID)
		for _, childID := range c.ChildIDs {
			m.graph.AddStructural(c.ID, childID)
		}
		if _, done := m.initialized[c.ID]; !done && c.Behavior != nil {
			if err := c.Behavior.Init(); err != nil {
				m.logger.Warn(context.Background(), err, "component init failed",
					"id", c.ID)
			}
		}
		m.initialized[c.ID] = struct{}{}
	}
	// Dependency edges last, once every subtree node is registered.
	for _, c := range m.collectSubtree(root) {
		for dep := range c.DependencyIDs {
			if !m.graph.Registered(dep) {
				continue
			}
			if err := m.graph.AddDependency(c.ID, dep); err != nil {
				delete(c.DependencyIDs, dep)
				m.logger.Warn(context.Background(), err,
					"dropped recorded dependency while registering subtree",
					"id", c.ID, "dependency", dep)
			}
		}
	}
}

// collectSubtree returns root and its descendants in depth-first
// preorder, resolving children through the registry when registered and
// skipping identities that resolve nowhere.
func (m *Manager) collectSubtree(root *types.Component) []*types.Component {
	var out []*types.Component
	seen := make(map[string]struct{})

	var walk func(c *types.Component)
	walk = func(c *types.Component) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
		for _, childID := range c.ChildIDs {
			if child, ok := m.registry.Get(childID); ok {
				walk(child)
			}
		}
	}
	walk(root)
	return out
}

// isDescendant reports whether id sits somewhere under ancestorID by
// walking parent links upward.
func (m *Manager) isDescendant(id, ancestorID string) bool {
	current, ok := m.registry.Get(id)
	if !ok {
		return false
	}
	for current.ParentID != "" {
		if current.ParentID == ancestorID {
			return true
		}
		parent, ok := m.registry.Get(current.ParentID)
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

func checkWeightOrdering(child, parent *types.Component) error {
	if child.Level.IsAuxiliary() || parent.Level.IsAuxiliary() {
		return nil
	}
	if child.Level.Weight() >= parent.Level.Weight() {
		return strataerrors.ErrInvalidHierarchy(child.ID, parent.ID).
			WithContext("child_level", string(child.Level)).
			WithContext("parent_level", string(parent.Level))
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
