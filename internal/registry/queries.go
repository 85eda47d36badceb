package registry

import "github.com/conneroisu/strata/internal/types"

// FindByID retrieves a component by identity.
func (m *Manager) FindByID(id string) (*types.Component, bool) {
	return m.registry.Get(id)
}

// FindByType returns every registered component at the given hierarchy
// level, sorted by name.
func (m *Manager) FindByType(level types.HierarchyLevel) []*types.Component {
	var matches []*types.Component
	for _, c := range m.registry.All() {
		if c.Level == level {
			matches = append(matches, c)
		}
	}
	return matches
}

// AncestorsOf returns the ancestor chain of the component, nearest parent
// first, root last. Unknown identities yield an empty result.
func (m *Manager) AncestorsOf(id string) []*types.Component {
	var ancestors []*types.Component
	current, ok := m.registry.Get(id)
	if !ok {
		return ancestors
	}
	seen := map[string]struct{}{current.ID: {}}
	for current.ParentID != "" {
		parent, ok := m.registry.Get(current.ParentID)
		if !ok {
			break
		}
		// A corrupted parent chain could loop; Validate reports that, the
		// query just stops.
		if _, dup := seen[parent.ID]; dup {
			break
		}
		seen[parent.ID] = struct{}{}
		ancestors = append(ancestors, parent)
		current = parent
	}
	return ancestors
}

// DescendantsOf returns every descendant of the component in depth-first
// preorder, excluding the component itself.
func (m *Manager) DescendantsOf(id string) []*types.Component {
	root, ok := m.registry.Get(id)
	if !ok {
		return nil
	}
	subtree := m.collectSubtree(root)
	if len(subtree) <= 1 {
		return nil
	}
	return subtree[1:]
}

// RootOf walks parent links to the top of the tree containing the
// component.
func (m *Manager) RootOf(id string) (*types.Component, bool) {
	current, ok := m.registry.Get(id)
	if !ok {
		return nil, false
	}
	ancestors := m.AncestorsOf(id)
	if len(ancestors) == 0 {
		return current, true
	}
	return ancestors[len(ancestors)-1], true
}

// Count returns the number of registered components.
func (m *Manager) Count() int {
	return m.registry.Count()
}

// All returns every registered component sorted by name.
func (m *Manager) All() []*types.Component {
	return m.registry.All()
}
