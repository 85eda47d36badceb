// Package manifest maintains the in-memory version manifest: per-component
// version info with history, and the compatibility matrix consumed by the
// resolver. Loading the manifest from and persisting it to durable storage
// is an external concern; the manifest only invokes an injected save
// callback after each mutation.
package manifest

import (
	"sort"
	"time"

	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/semver"
)

// VersionRecord is one entry in a component's version history.
type VersionRecord struct {
	Version semver.Version
	// Timestamp records when the version was registered.
	Timestamp time.Time
	// Changelog optionally describes the release.
	Changelog string
	// SourceRef optionally points at a source-control reference.
	SourceRef string
}

// ModuleVersionInfo holds everything known about one component's
// versions.
type ModuleVersionInfo struct {
	Identifier string
	// Current is the version most recently registered.
	Current semver.Version
	// Available is the ascending, de-duplicated set of registered
	// versions.
	Available []semver.Version
	// History is the time-ordered registration history.
	History []VersionRecord
}

// SaveFunc is the persistence callback invoked after each manifest
// mutation. A save failure is surfaced to the caller; the in-memory
// mutation stays applied.
type SaveFunc func(*Manifest) error

// Manifest is the top-level container mapping component identifier to
// version info, plus the compatibility matrix: component identifier →
// version string → (dependency identifier → constraint string).
type Manifest struct {
	Modules       map[string]*ModuleVersionInfo
	Compatibility map[string]map[string]map[string]string

	save SaveFunc
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{
		Modules:       make(map[string]*ModuleVersionInfo),
		Compatibility: make(map[string]map[string]map[string]string),
	}
}

// OnSave installs the persistence callback fired after each mutation.
func (m *Manifest) OnSave(fn SaveFunc) {
	m.save = fn
}

// RegisterVersion parses the version string, adds it to the component's
// available set (no duplicates), sets it as current, and appends a
// history record stamped with the current time.
func (m *Manifest) RegisterVersion(componentID, raw string) error {
	return m.RegisterRelease(componentID, raw, "", "")
}

// RegisterRelease is RegisterVersion with an optional changelog and
// source-control reference on the history record.
func (m *Manifest) RegisterRelease(componentID, raw, changelog, sourceRef string) error {
	version, err := semver.Parse(raw)
	if err != nil {
		return err
	}

	info, ok := m.Modules[componentID]
	if !ok {
		info = &ModuleVersionInfo{Identifier: componentID}
		m.Modules[componentID] = info
	}

	known := false
	for _, v := range info.Available {
		if v.Equal(version) {
			known = true
			break
		}
	}
	if !known {
		info.Available = append(info.Available, version)
		semver.Sort(info.Available)
	}

	info.Current = version
	info.History = append(info.History, VersionRecord{
		Version:   version,
		Timestamp: time.Now(),
		Changelog: changelog,
		SourceRef: sourceRef,
	})

	return m.persist()
}

// Bump reads the component's current version, computes the next one per
// standard semantic-versioning rules, and registers it. It fails with
// module_not_found when the component has no version on record.
func (m *Manifest) Bump(componentID string, kind semver.BumpKind) (semver.Version, error) {
	info, ok := m.Modules[componentID]
	if !ok {
		return semver.Version{}, strataerrors.ErrModuleNotFound(componentID)
	}

	next, err := info.Current.Bump(kind)
	if err != nil {
		return semver.Version{}, err
	}
	if err := m.RegisterVersion(componentID, next.String()); err != nil {
		return semver.Version{}, err
	}
	return next, nil
}

// CurrentVersion returns the component's current version, if any.
func (m *Manifest) CurrentVersion(componentID string) (semver.Version, bool) {
	info, ok := m.Modules[componentID]
	if !ok {
		return semver.Version{}, false
	}
	return info.Current, true
}

// AvailableVersions returns the component's registered versions in
// ascending order. The slice is a copy.
func (m *Manifest) AvailableVersions(componentID string) []semver.Version {
	info, ok := m.Modules[componentID]
	if !ok {
		return nil
	}
	return append([]semver.Version(nil), info.Available...)
}

// History returns the component's registration history, oldest first.
func (m *Manifest) History(componentID string) []VersionRecord {
	info, ok := m.Modules[componentID]
	if !ok {
		return nil
	}
	return append([]VersionRecord(nil), info.History...)
}

// SetRequirement records that componentID at version requires depID to
// satisfy the constraint string. The constraint is validated at
// recording time so the matrix never holds an unparseable entry. The
// matrix is keyed by the canonical version form, so "v1.0.0" and
// "1.0.0" land on the same entry.
func (m *Manifest) SetRequirement(componentID, version, depID, constraint string) error {
	parsed, err := semver.Parse(version)
	if err != nil {
		return err
	}
	if _, err := semver.ParseConstraint(constraint); err != nil {
		return err
	}
	key := parsed.String()

	if m.Compatibility[componentID] == nil {
		m.Compatibility[componentID] = make(map[string]map[string]string)
	}
	if m.Compatibility[componentID][key] == nil {
		m.Compatibility[componentID][key] = make(map[string]string)
	}
	m.Compatibility[componentID][key][depID] = constraint

	return m.persist()
}

// Requirements returns the dependency constraints recorded for the
// component at the given version, or nil when none are recorded (which
// the resolver reads as "compatibility assumed"). The version is
// canonicalized before the lookup so callers may pass any parseable
// form.
func (m *Manifest) Requirements(componentID, version string) map[string]string {
	if parsed, err := semver.Parse(version); err == nil {
		version = parsed.String()
	}
	byVersion, ok := m.Compatibility[componentID]
	if !ok {
		return nil
	}
	reqs, ok := byVersion[version]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(reqs))
	for dep, constraint := range reqs {
		out[dep] = constraint
	}
	return out
}

// Identifiers returns every component identifier with version info,
// sorted.
func (m *Manifest) Identifiers() []string {
	ids := make([]string, 0, len(m.Modules))
	for id := range m.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manifest) persist() error {
	if m.save == nil {
		return nil
	}
	return m.save(m)
}
