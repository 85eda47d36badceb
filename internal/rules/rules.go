// Package rules implements the pluggable structural validation rules run
// over the component tree. Each rule is an independent check taking a
// component and a read-only view of the hierarchy; new rules can be added
// without changing the hierarchy manager.
package rules

import (
	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/types"
)

// Hierarchy is the read-only view a rule consults while checking a
// component.
type Hierarchy interface {
	// Lookup resolves an identity to its component record.
	Lookup(id string) (*types.Component, bool)
}

// Rule is a single structural check. Check returns nil when the component
// passes, or an engine error describing the violation.
type Rule interface {
	Name() string
	Check(c *types.Component, h Hierarchy) error
}

// Limits holds the numeric bounds enforced by the default rule set.
type Limits struct {
	MaxChildren     int
	MaxDepth        int
	MaxDependencies int
}

// Default returns the default rule set for the given limits: weight
// ordering of children, maximum ancestor depth, maximum children count,
// and maximum dependency count.
func Default(limits Limits) []Rule {
	return []Rule{
		WeightOrdering{},
		MaxDepth{Limit: limits.MaxDepth},
		MaxChildren{Limit: limits.MaxChildren},
		MaxDependencies{Limit: limits.MaxDependencies},
	}
}

// WeightOrdering verifies that every child of the component has a
// strictly smaller level weight. Auxiliary kinds (microservice, utility)
// sit outside the ordering and are skipped on either side of the edge.
type WeightOrdering struct{}

func (WeightOrdering) Name() string { return "weight-ordering" }

func (WeightOrdering) Check(c *types.Component, h Hierarchy) error {
	if c.Level.IsAuxiliary() {
		return nil
	}
	for _, childID := range c.ChildIDs {
		child, ok := h.Lookup(childID)
		if !ok {
			continue
		}
		if child.Level.IsAuxiliary() {
			continue
		}
		if child.Level.Weight() >= c.Level.Weight() {
			return strataerrors.ErrInvalidHierarchy(child.ID, c.ID)
		}
	}
	return nil
}

// MaxDepth verifies that the component's ancestor chain does not exceed
// the configured depth.
type MaxDepth struct {
	Limit int
}

func (MaxDepth) Name() string { return "max-depth" }

func (r MaxDepth) Check(c *types.Component, h Hierarchy) error {
	depth := 0
	current := c
	for current.ParentID != "" {
		parent, ok := h.Lookup(current.ParentID)
		if !ok {
			break
		}
		depth++
		if depth > r.Limit {
			return strataerrors.Newf(strataerrors.KindInvalidHierarchy,
				"ancestor chain exceeds maximum depth %d", r.Limit).
				WithComponent(c.ID)
		}
		current = parent
	}
	return nil
}

// MaxChildren verifies the component's fan-out against the configured
// maximum.
type MaxChildren struct {
	Limit int
}

func (MaxChildren) Name() string { return "max-children" }

func (r MaxChildren) Check(c *types.Component, _ Hierarchy) error {
	if len(c.ChildIDs) > r.Limit {
		return strataerrors.ErrMaxChildrenExceeded(c.ID, r.Limit).
			WithContext("children", len(c.ChildIDs))
	}
	return nil
}

// MaxDependencies verifies the size of the component's dependency set
// against the configured maximum.
type MaxDependencies struct {
	Limit int
}

func (MaxDependencies) Name() string { return "max-dependencies" }

func (r MaxDependencies) Check(c *types.Component, _ Hierarchy) error {
	if len(c.DependencyIDs) > r.Limit {
		return strataerrors.Newf(strataerrors.KindInvalidHierarchy,
			"dependency count %d exceeds maximum %d", len(c.DependencyIDs), r.Limit).
			WithComponent(c.ID)
	}
	return nil
}
