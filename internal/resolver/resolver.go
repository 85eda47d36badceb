// Package resolver implements compatibility checking against the version
// manifest's matrix and a best-effort, first-fit resolution of version
// assignments across a set of components.
//
// ResolveConflicts walks the requested components in input order and
// never revisits an earlier choice once a later one proves incompatible;
// it can report no solution for sets that do have a compatible
// assignment reachable only by backtracking. It is not a global solver.
package resolver

import (
	"context"
	"fmt"
	"sort"

	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/manifest"
	"github.com/conneroisu/strata/internal/semver"
)

// Resolver answers compatibility questions against a version manifest.
type Resolver struct {
	manifest *manifest.Manifest
	logger   logging.Logger
}

// New creates a resolver over the given manifest.
func New(man *manifest.Manifest, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		manifest: man,
		logger:   logger.WithComponent("resolver"),
	}
}

// CheckCompatibility verifies that the component at the given version can
// load alongside loaded. When the matrix has no entry for the pair,
// compatibility is assumed. Otherwise every listed dependency must be
// present in loaded and satisfy its constraint: an absent dependency
// fails with missing_dependency, an unsatisfied constraint with
// version_conflict.
func (r *Resolver) CheckCompatibility(componentID, version string, loaded map[string]semver.Version) error {
	reqs := r.manifest.Requirements(componentID, version)
	if reqs == nil {
		return nil
	}

	for _, dep := range sortedKeys(reqs) {
		constraint, err := semver.ParseConstraint(reqs[dep])
		if err != nil {
			return err
		}
		loadedVersion, ok := loaded[dep]
		if !ok {
			return strataerrors.ErrMissingDependency(componentID, dep)
		}
		if !constraint.Satisfies(loadedVersion) {
			return strataerrors.ErrVersionConflict(componentID, fmt.Sprintf(
				"requires %s %s, but %s is loaded at %s",
				dep, constraint.String(), dep, loadedVersion.String()))
		}
	}
	return nil
}

// CompatibleVersions filters the component's available versions down to
// those that pass CheckCompatibility against loaded, ascending.
func (r *Resolver) CompatibleVersions(componentID string, loaded map[string]semver.Version) []semver.Version {
	var compatible []semver.Version
	for _, v := range r.manifest.AvailableVersions(componentID) {
		if r.CheckCompatibility(componentID, v.String(), loaded) == nil {
			compatible = append(compatible, v)
		}
	}
	return compatible
}

// Request names a component and the version the caller would like it at.
type Request struct {
	Component string
	Version   string
}

// ResolveConflicts greedily assigns a version to each requested
// component in input order: the desired version when it is compatible
// with what has already been resolved, otherwise the highest compatible
// alternative among the component's available versions. When no
// compatible version exists at all, resolution fails with
// version_conflict and returns no assignment.
func (r *Resolver) ResolveConflicts(desired []Request) (map[string]semver.Version, error) {
	resolved := make(map[string]semver.Version, len(desired))
	order := make([]string, 0, len(desired))

	for _, req := range desired {
		want, err := semver.Parse(req.Version)
		if err != nil {
			return nil, err
		}

		if r.compatibleWithResolved(req.Component, want, resolved, order) {
			resolved[req.Component] = want
			order = append(order, req.Component)
			continue
		}

		alternative, ok := r.firstFit(req.Component, want, resolved, order)
		if !ok {
			return nil, strataerrors.ErrVersionConflict(req.Component, fmt.Sprintf(
				"no available version of %s is compatible with the resolved set",
				req.Component))
		}

		r.logger.Debug(context.Background(), "fell back from desired version",
			"id", req.Component,
			"desired", want.String(),
			"resolved", alternative.String())
		resolved[req.Component] = alternative
		order = append(order, req.Component)
	}

	return resolved, nil
}

// firstFit scans the component's available versions, highest first, for
// one compatible with the already-resolved set, skipping the desired
// version that already failed.
func (r *Resolver) firstFit(componentID string, want semver.Version, resolved map[string]semver.Version, order []string) (semver.Version, bool) {
	available := r.manifest.AvailableVersions(componentID)
	for i := len(available) - 1; i >= 0; i-- {
		candidate := available[i]
		if candidate.Equal(want) {
			continue
		}
		if r.compatibleWithResolved(componentID, candidate, resolved, order) {
			return candidate, true
		}
	}
	return semver.Version{}, false
}

// compatibleWithResolved checks a candidate assignment both ways against
// the partial solution: the candidate's own requirements on components
// already resolved, and every resolved component's requirements on the
// candidate. Requirements on components not yet resolved are deferred to
// their own turn.
func (r *Resolver) compatibleWithResolved(componentID string, candidate semver.Version, resolved map[string]semver.Version, order []string) bool {
	reqs := r.manifest.Requirements(componentID, candidate.String())
	for dep, raw := range reqs {
		constraint, err := semver.ParseConstraint(raw)
		if err != nil {
			return false
		}
		if chosen, ok := resolved[dep]; ok && !constraint.Satisfies(chosen) {
			return false
		}
	}

	for _, other := range order {
		otherReqs := r.manifest.Requirements(other, resolved[other].String())
		raw, ok := otherReqs[componentID]
		if !ok {
			continue
		}
		constraint, err := semver.ParseConstraint(raw)
		if err != nil {
			return false
		}
		if !constraint.Satisfies(candidate) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
