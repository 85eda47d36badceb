// Package types provides the shared type definitions used throughout Strata.
// This package contains the component record, hierarchy levels, and event
// types to avoid circular dependencies between packages.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Component is the node type stored in the hierarchy tree. Parent and
// children are recorded as identities and resolved through the registry,
// never as direct pointers, so there are no reference cycles between
// records.
type Component struct {
	// ID is the process-unique identity, assigned at creation, immutable.
	ID string
	// Name is the human-readable component name (e.g., "core", "ui").
	Name string
	// Level classifies the component in the hierarchy and carries the
	// weight used for ordering checks.
	Level HierarchyLevel
	// ParentID is the identity of the owning parent, empty for roots.
	ParentID string
	// ChildIDs is the ordered sequence of owned child identities.
	ChildIDs []string
	// DependencyIDs is the set of identities this component depends on.
	// It is a weak relation resolved through the registry, not ownership.
	DependencyIDs map[string]struct{}
	// Capabilities stores opaque capability data, passed through untouched.
	Capabilities map[string]interface{}
	// Config stores opaque configuration data, passed through untouched.
	Config map[string]interface{}
	// Behavior holds the per-kind hooks, may be nil.
	Behavior Behavior
	// CreatedAt records when the component was instantiated.
	CreatedAt time.Time
}

// NewComponent creates a component with a fresh identity and no links.
func NewComponent(name string, level HierarchyLevel) *Component {
	return &Component{
		ID:            uuid.NewString(),
		Name:          name,
		Level:         level,
		DependencyIDs: make(map[string]struct{}),
		CreatedAt:     time.Now(),
	}
}

// HasDependency reports whether id is in the component's dependency set.
func (c *Component) HasDependency(id string) bool {
	_, ok := c.DependencyIDs[id]
	return ok
}

// DependencyList returns the dependency identities as a slice. Order is
// unspecified.
func (c *Component) DependencyList() []string {
	deps := make([]string, 0, len(c.DependencyIDs))
	for id := range c.DependencyIDs {
		deps = append(deps, id)
	}
	return deps
}

// Behavior is the per-kind hook interface invoked by the engine. Concrete
// component kinds implement it differently; a nil Behavior means the
// component accepts every lifecycle transition and ignores messages.
type Behavior interface {
	// Init is called once when the component joins the hierarchy.
	Init() error
	// CanUnload reports whether the component may currently be removed.
	// It may block while the component finishes in-flight work.
	CanUnload() bool
	// Cleanup is called after the component has been detached.
	Cleanup() error
	// Receive delivers a propagated message to the component.
	Receive(msg *Message) error
}

// Message is the payload delivered during event propagation. A receiver
// sets StopPropagation to end a bubble walk early; broadcast ignores it.
type Message struct {
	// Topic names the message kind (e.g., "focus", "theme-changed").
	Topic string
	// Payload carries arbitrary message data.
	Payload map[string]interface{}
	// SourceID is the identity of the component the propagation started at.
	SourceID string
	// StopPropagation ends a bubble walk after the current delivery.
	StopPropagation bool
}

// ChangeType represents the kind of hierarchy change event.
type ChangeType string

const (
	ChangeChildAdded        ChangeType = "child_added"
	ChangeComponentRemoved  ChangeType = "component_removed"
	ChangeComponentMoved    ChangeType = "component_moved"
	ChangeChildrenReordered ChangeType = "children_reordered"
)

// ChangeEvent represents a mutation of the hierarchy, used for
// notifications to watchers like the CLI and outside observers.
type ChangeEvent struct {
	// Type indicates the kind of change.
	Type ChangeType
	// Component is the record the change applies to.
	Component *Component
	// Timestamp records when the change occurred.
	Timestamp time.Time
}
