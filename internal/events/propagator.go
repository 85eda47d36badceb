// Package events implements the two event propagation primitives over
// the component tree: bubbling a message up the ancestor chain and
// broadcasting it down through descendants.
//
// Delivery is synchronous, one node at a time in traversal order; the
// engine supplies the order, the component's own Receive hook supplies
// the delivery contract. Nothing here bounds how long a delivery takes —
// that is the caller's responsibility.
package events

import (
	"context"

	"go.uber.org/multierr"

	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/types"
)

// Hierarchy is the read-only tree view the propagator traverses.
type Hierarchy interface {
	Lookup(id string) (*types.Component, bool)
}

// Propagator walks the tree maintained by the hierarchy manager and
// delivers messages through component Receive hooks.
type Propagator struct {
	tree   Hierarchy
	logger logging.Logger
}

// NewPropagator creates a propagator over the given hierarchy view.
func NewPropagator(tree Hierarchy, logger logging.Logger) *Propagator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Propagator{
		tree:   tree,
		logger: logger.WithComponent("events"),
	}
}

// Bubble walks parent links starting at the component identified by
// fromID, delivering the message to each ancestor in turn. The walk
// stops early when a delivered message has its StopPropagation flag set,
// otherwise it continues to the root. Delivery errors do not stop the
// walk; they are combined and returned at the end.
func (p *Propagator) Bubble(msg *types.Message, fromID string) error {
	current, ok := p.tree.Lookup(fromID)
	if !ok {
		return nil
	}
	if msg.SourceID == "" {
		msg.SourceID = fromID
	}

	var delivered error
	seen := map[string]struct{}{fromID: {}}
	for current.ParentID != "" {
		parent, ok := p.tree.Lookup(current.ParentID)
		if !ok {
			break
		}
		if _, dup := seen[parent.ID]; dup {
			break
		}
		seen[parent.ID] = struct{}{}

		delivered = multierr.Append(delivered, p.deliver(parent, msg))
		if msg.StopPropagation {
			p.logger.Debug(context.Background(), "bubble stopped",
				"topic", msg.Topic, "at", parent.ID)
			break
		}
		current = parent
	}
	return delivered
}

// Broadcast delivers the message to the component identified by fromID
// and recursively to every descendant, parent before children, children
// left to right. StopPropagation has no effect on a broadcast.
func (p *Propagator) Broadcast(msg *types.Message, fromID string) error {
	root, ok := p.tree.Lookup(fromID)
	if !ok {
		return nil
	}
	if msg.SourceID == "" {
		msg.SourceID = fromID
	}

	var delivered error
	seen := make(map[string]struct{})

	var walk func(c *types.Component)
	walk = func(c *types.Component) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}

		delivered = multierr.Append(delivered, p.deliver(c, msg))
		for _, childID := range c.ChildIDs {
			if child, ok := p.tree.Lookup(childID); ok {
				walk(child)
			}
		}
	}
	walk(root)
	return delivered
}

func (p *Propagator) deliver(c *types.Component, msg *types.Message) error {
	if c.Behavior == nil {
		return nil
	}
	if err := c.Behavior.Receive(msg); err != nil {
		p.logger.Warn(context.Background(), err, "message delivery failed",
			"topic", msg.Topic, "to", c.ID)
		return err
	}
	return nil
}
