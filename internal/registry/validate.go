package registry

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/conneroisu/strata/internal/types"
)

// Severity classifies a validation finding.
type Severity int

const (
	// SeverityWarning covers findings the caller may tolerate, like
	// orphaned components.
	SeverityWarning Severity = iota
	// SeverityError covers structural rule violations.
	SeverityError
	// SeverityHigh covers parent/child back-reference mismatches.
	SeverityHigh
	// SeverityCritical covers structural corruption: a component
	// reachable twice from the root.
	SeverityCritical
)

// String returns the display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityError:
		return "error"
	default:
		return "warning"
	}
}

// Finding is a single validation result tied to a component.
type Finding struct {
	Severity    Severity
	ComponentID string
	Rule        string
	Message     string
}

func (f Finding) String() string {
	if f.Rule != "" {
		return fmt.Sprintf("%s [%s] %s: %s", f.Severity, f.Rule, f.ComponentID, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.Severity, f.ComponentID, f.Message)
}

// Report is the outcome of a full-tree validation. Validation never
// fails; callers inspect the report and decide how to react to
// non-critical findings versus critical ones.
type Report struct {
	// Valid is true when no error-or-worse finding was recorded.
	// Warnings do not affect validity.
	Valid bool
	// Errors holds error, high, and critical findings ordered by
	// severity, worst first.
	Errors []Finding
	// Warnings holds warning-level findings.
	Warnings []Finding
	// ReachableCount is the number of components reachable from the
	// validated root.
	ReachableCount int
	// OrphanCount is the number of registered components not reachable
	// from the validated root.
	OrphanCount int
}

// Err combines every error-or-worse finding into a single error, or nil
// when the report is valid.
func (r *Report) Err() error {
	var combined error
	for _, f := range r.Errors {
		combined = multierr.Append(combined, fmt.Errorf("%s", f.String()))
	}
	return combined
}

// Validate walks the full tree from the given root, applying every
// registered rule to every node, detecting duplicate reachable
// identities and parent/child back-reference mismatches, and reporting
// registered components unreachable from the root as orphans.
func (m *Manager) Validate(fromRootID string) *Report {
	report := &Report{}

	root, ok := m.registry.Get(fromRootID)
	if !ok {
		report.Errors = append(report.Errors, Finding{
			Severity:    SeverityHigh,
			ComponentID: fromRootID,
			Message:     "validation root is not registered",
		})
		report.Valid = false
		return report
	}

	reachable := make(map[string]struct{})

	var walk func(c *types.Component)
	walk = func(c *types.Component) {
		if _, dup := reachable[c.ID]; dup {
			report.Errors = append(report.Errors, Finding{
				Severity:    SeverityCritical,
				ComponentID: c.ID,
				Message:     "component is reachable more than once from the root",
			})
			return
		}
		reachable[c.ID] = struct{}{}

		for _, rule := range m.rules {
			if err := rule.Check(c, m); err != nil {
				report.Errors = append(report.Errors, Finding{
					Severity:    SeverityError,
					ComponentID: c.ID,
					Rule:        rule.Name(),
					Message:     err.Error(),
				})
			}
		}

		for _, childID := range c.ChildIDs {
			child, ok := m.registry.Get(childID)
			if !ok {
				report.Errors = append(report.Errors, Finding{
					Severity:    SeverityHigh,
					ComponentID: c.ID,
					Message:     fmt.Sprintf("child %s is not registered", childID),
				})
				continue
			}
			if child.ParentID != c.ID {
				report.Errors = append(report.Errors, Finding{
					Severity:    SeverityHigh,
					ComponentID: childID,
					Message: fmt.Sprintf(
						"parent back-reference %q does not match actual parent %s",
						child.ParentID, c.ID),
				})
			}
			walk(child)
		}
	}
	walk(root)

	report.ReachableCount = len(reachable)

	for _, c := range m.registry.All() {
		if _, ok := reachable[c.ID]; ok {
			continue
		}
		report.OrphanCount++
		report.Warnings = append(report.Warnings, Finding{
			Severity:    SeverityWarning,
			ComponentID: c.ID,
			Message:     "component is registered but not reachable from the validated root",
		})
	}

	sort.SliceStable(report.Errors, func(i, j int) bool {
		return report.Errors[i].Severity > report.Errors[j].Severity
	})
	report.Valid = len(report.Errors) == 0
	return report
}
