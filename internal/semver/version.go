// Package semver provides the comparable semantic-version value and the
// version-range constraint syntax used by the compatibility resolver.
//
// Version parsing and precedence are delegated to
// github.com/blang/semver/v4; constraint checking is delegated to
// github.com/Masterminds/semver/v3. Both follow SemVer 2.0.0: a
// pre-release orders below the same release, build metadata never
// affects ordering.
package semver

import (
	"fmt"
	"sort"
	"strings"

	bsemver "github.com/blang/semver/v4"

	strataerrors "github.com/conneroisu/strata/internal/errors"
)

// Version is a semantic version. The zero value is 0.0.0.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Metadata   string
}

// Parse parses a SemVer 2.0.0 version string. A leading "v" is tolerated
// and stripped. On error it returns a zero Version and an invalid_version
// engine error.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")

	bv, err := bsemver.Parse(trimmed)
	if err != nil {
		return Version{}, strataerrors.ErrInvalidVersion(s, err)
	}
	return fromBlang(bv), nil
}

// MustParse parses a version string and panics on error. For tests and
// compile-time constants only.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical "Major.Minor.Patch[-Prerelease][+Metadata]"
// form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Metadata != "" {
		s += "+" + v.Metadata
	}
	return s
}

// Compare reports the SemVer 2.0.0 ordering of v against other: -1, 0,
// or +1. Pre-release versions order below the same release; build
// metadata is ignored.
func (v Version) Compare(other Version) int {
	return v.blang().Compare(other.blang())
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other have the same precedence. Versions
// differing only in build metadata are equal.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Greater reports whether v orders strictly after other.
func (v Version) Greater(other Version) bool {
	return v.Compare(other) > 0
}

// BumpKind names a version increment.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// ParseBumpKind converts a string into a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(s) {
	case BumpMajor, BumpMinor, BumpPatch:
		return BumpKind(s), nil
	}
	return "", fmt.Errorf("unknown bump kind %q (want major, minor, or patch)", s)
}

// Bump computes the next version per standard semantic-versioning rules:
// a major bump resets minor and patch to zero, a minor bump resets
// patch, a patch bump increments patch only. Pre-release and metadata
// are dropped from the result.
func (v Version) Bump(kind BumpKind) (Version, error) {
	switch kind {
	case BumpMajor:
		return Version{Major: v.Major + 1}, nil
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	}
	return Version{}, fmt.Errorf("unknown bump kind %q", kind)
}

// Sort orders versions ascending in place by SemVer precedence.
func Sort(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}

func (v Version) blang() bsemver.Version {
	// The struct is only ever populated through Parse, so re-parsing the
	// canonical form cannot fail.
	bv, err := bsemver.Parse(v.String())
	if err != nil {
		return bsemver.Version{
			Major: uint64(v.Major),
			Minor: uint64(v.Minor),
			Patch: uint64(v.Patch),
		}
	}
	return bv
}

func fromBlang(bv bsemver.Version) Version {
	var prerelease string
	if len(bv.Pre) > 0 {
		parts := make([]string, len(bv.Pre))
		for i, p := range bv.Pre {
			parts[i] = p.String()
		}
		prerelease = strings.Join(parts, ".")
	}

	return Version{
		Major:      int(bv.Major),
		Minor:      int(bv.Minor),
		Patch:      int(bv.Patch),
		Prerelease: prerelease,
		Metadata:   strings.Join(bv.Build, "."),
	}
}
