// Package graph maintains the directed dependency graph over component
// identities. Two edge kinds are tracked: structural (tree) edges and
// logical dependency edges. The kinds are stored separately so dependency
// edges can come and go without touching tree shape, but they are merged
// for reachability so a cycle can never be closed through any mix of the
// two.
//
// The graph follows the engine's single-writer contract: mutations must
// be serialized by the caller, reads may be interleaved with each other.
package graph

import (
	"sort"

	strataerrors "github.com/conneroisu/strata/internal/errors"
)

// DependencyGraph tracks structural and dependency edges keyed by
// component identity. Structural edges point parent to child; dependency
// edges point dependent to dependency, so both kinds share one direction
// space for path queries.
type DependencyGraph struct {
	structural map[string]map[string]struct{}
	dependency map[string]map[string]struct{}
	nodes      map[string]struct{}
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		structural: make(map[string]map[string]struct{}),
		dependency: make(map[string]map[string]struct{}),
		nodes:      make(map[string]struct{}),
	}
}

// Register makes the identity known to the graph with no edges.
func (g *DependencyGraph) Register(id string) {
	g.nodes[id] = struct{}{}
}

// Registered reports whether the identity is known to the graph.
func (g *DependencyGraph) Registered(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Unregister removes the identity and every edge touching it, in either
// direction and of either kind.
func (g *DependencyGraph) Unregister(id string) {
	delete(g.nodes, id)
	delete(g.structural, id)
	delete(g.dependency, id)
	for _, adjacent := range []map[string]map[string]struct{}{g.structural, g.dependency} {
		for from, targets := range adjacent {
			delete(targets, id)
			if len(targets) == 0 {
				delete(adjacent, from)
			}
		}
	}
}

// AddStructural records a parent-to-child tree edge. Tree shape is
// validated by the hierarchy manager before it calls here.
func (g *DependencyGraph) AddStructural(parentID, childID string) {
	g.Register(parentID)
	g.Register(childID)
	if g.structural[parentID] == nil {
		g.structural[parentID] = make(map[string]struct{})
	}
	g.structural[parentID][childID] = struct{}{}
}

// RemoveStructural removes a parent-to-child tree edge if present.
func (g *DependencyGraph) RemoveStructural(parentID, childID string) {
	if targets, ok := g.structural[parentID]; ok {
		delete(targets, childID)
		if len(targets) == 0 {
			delete(g.structural, parentID)
		}
	}
}

// AddDependency records a dependent-to-dependency edge after verifying it
// would not close a cycle through any combination of structural and
// dependency edges. On failure the graph is unchanged.
func (g *DependencyGraph) AddDependency(dependentID, dependencyID string) error {
	if !g.Registered(dependentID) {
		return strataerrors.ErrMissingDependency(dependentID, dependentID)
	}
	if !g.Registered(dependencyID) {
		return strataerrors.ErrMissingDependency(dependentID, dependencyID)
	}
	if dependentID == dependencyID || g.HasPath(dependencyID, dependentID) {
		return strataerrors.ErrCircularDependency(dependentID, dependencyID)
	}

	if g.dependency[dependentID] == nil {
		g.dependency[dependentID] = make(map[string]struct{})
	}
	g.dependency[dependentID][dependencyID] = struct{}{}
	return nil
}

// RemoveDependency removes a dependent-to-dependency edge, reporting
// whether the edge existed.
func (g *DependencyGraph) RemoveDependency(dependentID, dependencyID string) bool {
	targets, ok := g.dependency[dependentID]
	if !ok {
		return false
	}
	if _, ok := targets[dependencyID]; !ok {
		return false
	}
	delete(targets, dependencyID)
	if len(targets) == 0 {
		delete(g.dependency, dependentID)
	}
	return true
}

// HasPath reports whether to is reachable from from over the union of
// structural and dependency edges, using breadth-first search.
func (g *DependencyGraph) HasPath(from, to string) bool {
	if from == to {
		return true
	}

	visited := map[string]struct{}{from: {}}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, adjacent := range []map[string]map[string]struct{}{g.structural, g.dependency} {
			for next := range adjacent[current] {
				if next == to {
					return true
				}
				if _, seen := visited[next]; seen {
					continue
				}
				visited[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}

	return false
}

// WouldCreateCycle reports whether adding a from-to dependency edge would
// close a cycle.
func (g *DependencyGraph) WouldCreateCycle(from, to string) bool {
	return g.HasPath(to, from)
}

// DependentsOf returns every component that records id as a dependency,
// sorted for deterministic output. Structural edges do not count; a
// parent is an owner, not a dependent.
func (g *DependencyGraph) DependentsOf(id string) []string {
	var dependents []string
	for from, targets := range g.dependency {
		if _, ok := targets[id]; ok {
			dependents = append(dependents, from)
		}
	}
	sort.Strings(dependents)
	return dependents
}

// DependenciesOf returns the dependency targets recorded for id, sorted.
func (g *DependencyGraph) DependenciesOf(id string) []string {
	var deps []string
	for to := range g.dependency[id] {
		deps = append(deps, to)
	}
	sort.Strings(deps)
	return deps
}
