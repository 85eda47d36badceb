// Package registry implements the component registry and the hierarchy
// manager facade over it. The registry is arena-style storage mapping
// identity to record; parent and child links are identity lookups through
// it, never direct pointers.
//
// The manager follows a single-writer contract: structural mutations must
// be serialized by one logical owner at a time. Read-only queries may be
// interleaved with each other but not with a concurrent mutation.
package registry

import (
	"sort"

	"github.com/conneroisu/strata/internal/types"
)

// Registry is the arena holding every registered component keyed by
// identity.
type Registry struct {
	components map[string]*types.Component
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]*types.Component),
	}
}

// Register adds or replaces a component record.
func (r *Registry) Register(c *types.Component) {
	r.components[c.ID] = c
}

// Get retrieves a component by identity.
func (r *Registry) Get(id string) (*types.Component, bool) {
	c, ok := r.components[id]
	return c, ok
}

// Remove deletes a component record, reporting whether it existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.components[id]; !ok {
		return false
	}
	delete(r.components, id)
	return true
}

// All returns every registered component, sorted by name then identity
// for deterministic iteration.
func (r *Registry) All() []*types.Component {
	all := make([]*types.Component, 0, len(r.components))
	for _, c := range r.components {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	return len(r.components)
}
