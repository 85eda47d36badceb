// Package errors defines the structured error types used by the Strata
// engine. Every failure is one of a closed set of named kinds so that
// callers can branch on the kind rather than on message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a failure category. The set is closed: the engine never
// fails with a kind outside this list.
type Kind string

const (
	// Structural kinds.
	KindInvalidHierarchy       Kind = "invalid_hierarchy"
	KindAlreadyHasParent       Kind = "already_has_parent"
	KindMaxChildrenExceeded    Kind = "max_children_exceeded"
	KindCannotRemove           Kind = "cannot_remove"
	KindHasDependents          Kind = "has_dependents"
	KindCannotMoveToSelf       Kind = "cannot_move_to_self"
	KindCannotMoveToDescendant Kind = "cannot_move_to_descendant"
	KindInvalidReorder         Kind = "invalid_reorder"
	KindCircularDependency     Kind = "circular_dependency"
	KindMissingDependency      Kind = "missing_dependency"

	// Version kinds.
	KindModuleNotFound  Kind = "module_not_found"
	KindInvalidVersion  Kind = "invalid_version"
	KindVersionConflict Kind = "version_conflict"
)

// EngineError is the structured error returned by engine operations.
type EngineError struct {
	Kind      Kind
	Message   string
	Component string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches two engine errors by kind.
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}

	return false
}

// WithContext attaches context information to the error.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent attaches the component identity the error applies to.
func (e *EngineError) WithComponent(id string) *EngineError {
	e.Component = id

	return e
}

// New creates an engine error of the given kind.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Newf creates an engine error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an engine error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of an engine error, or an empty kind for any
// other error.
func KindOf(err error) Kind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Error creation helpers for the common structural failures.

// ErrInvalidHierarchy reports a weight-ordering violation between a child
// and its would-be parent.
func ErrInvalidHierarchy(childID, parentID string) *EngineError {
	return Newf(KindInvalidHierarchy,
		"child weight must be smaller than parent weight (child %s, parent %s)",
		childID, parentID).WithComponent(childID)
}

// ErrAlreadyHasParent reports an attempt to attach an already-owned
// component.
func ErrAlreadyHasParent(id string) *EngineError {
	return New(KindAlreadyHasParent, "component already has a parent").
		WithComponent(id)
}

// ErrMaxChildrenExceeded reports a fan-out limit hit on the parent.
func ErrMaxChildrenExceeded(parentID string, limit int) *EngineError {
	return Newf(KindMaxChildrenExceeded, "parent already has %d children", limit).
		WithComponent(parentID)
}

// ErrCannotRemove reports a component that refused to unload.
func ErrCannotRemove(id string) *EngineError {
	return New(KindCannotRemove, "component cannot currently be unloaded").
		WithComponent(id)
}

// ErrHasDependents reports a removal blocked by components still depending
// on the target. The dependent identities are carried in the error context.
func ErrHasDependents(id string, dependents []string) *EngineError {
	return Newf(KindHasDependents, "component is required by %d other components",
		len(dependents)).
		WithComponent(id).
		WithContext("dependents", dependents)
}

// Dependents extracts the dependent identity list from a has_dependents
// error, or nil for any other error.
func Dependents(err error) []string {
	var e *EngineError
	if !errors.As(err, &e) || e.Kind != KindHasDependents {
		return nil
	}
	deps, _ := e.Context["dependents"].([]string)
	return deps
}

// ErrCircularDependency reports an edge that would close a cycle.
func ErrCircularDependency(dependentID, dependencyID string) *EngineError {
	return Newf(KindCircularDependency,
		"dependency on %s would create a cycle", dependencyID).
		WithComponent(dependentID).
		WithContext("dependency", dependencyID)
}

// ErrMissingDependency reports a dependency edge referencing an unknown
// identity.
func ErrMissingDependency(dependentID, dependencyID string) *EngineError {
	return Newf(KindMissingDependency, "dependency %s is not registered",
		dependencyID).
		WithComponent(dependentID)
}

// ErrModuleNotFound reports a version operation on an unknown component.
func ErrModuleNotFound(id string) *EngineError {
	return New(KindModuleNotFound, "no version information on record").
		WithComponent(id)
}

// ErrInvalidVersion reports an unparseable version or constraint string.
func ErrInvalidVersion(raw string, cause error) *EngineError {
	return Wrap(KindInvalidVersion, fmt.Sprintf("invalid version %q", raw), cause)
}

// ErrVersionConflict reports an unsatisfiable compatibility requirement.
func ErrVersionConflict(id, detail string) *EngineError {
	return New(KindVersionConflict, detail).WithComponent(id)
}
