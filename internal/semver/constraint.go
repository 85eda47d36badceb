package semver

import (
	"strings"

	mm "github.com/Masterminds/semver/v3"

	strataerrors "github.com/conneroisu/strata/internal/errors"
)

// Op identifies one of the accepted constraint forms. The syntax is
// closed: anything outside this set fails to parse.
type Op string

const (
	// OpBare is a constraint with no operator prefix. It is parsed and
	// compared structurally, exactly like OpExact, so "1.0" matches a
	// loaded "1.0.0".
	OpBare  Op = ""
	OpExact Op = "="
	OpCaret Op = "^"
	OpTilde Op = "~"
	OpGTE   Op = ">="
	OpGT    Op = ">"
	OpLTE   Op = "<="
	OpLT    Op = "<"
)

// Constraint is a parsed version-range requirement:
//
//	=X.Y.Z   exact
//	^X.Y.Z   same major, version >= X.Y.Z
//	~X.Y.Z   same major and minor, version >= X.Y.Z
//	>=, >, <=, <  simple comparison
//	X.Y.Z    bare, treated as exact
type Constraint struct {
	raw    string
	op     Op
	target Version
	checks *mm.Constraints
}

// Longer operators first so ">=" is not read as ">".
var constraintOps = []Op{OpGTE, OpLTE, OpGT, OpLT, OpExact, OpCaret, OpTilde}

// ParseConstraint parses a constraint string into its operator and
// target version. Invalid operators or unparseable versions fail with an
// invalid_version engine error.
func ParseConstraint(raw string) (Constraint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Constraint{}, strataerrors.New(strataerrors.KindInvalidVersion,
			"empty constraint")
	}

	op := OpBare
	rest := trimmed
	for _, candidate := range constraintOps {
		if strings.HasPrefix(trimmed, string(candidate)) {
			op = candidate
			rest = strings.TrimSpace(strings.TrimPrefix(trimmed, string(candidate)))
			break
		}
	}

	target, err := parseLenient(rest)
	if err != nil {
		return Constraint{}, strataerrors.ErrInvalidVersion(raw, err)
	}

	c := Constraint{raw: trimmed, op: op, target: target}
	switch op {
	case OpGTE, OpGT, OpLTE, OpLT:
		checks, err := mm.NewConstraint(string(op) + target.String())
		if err != nil {
			return Constraint{}, strataerrors.ErrInvalidVersion(raw, err)
		}
		c.checks = checks
	default:
		// Bare, exact, caret, and tilde are checked structurally against
		// the target; no range expression needed.
	}
	return c, nil
}

// MustParseConstraint parses a constraint and panics on error. For tests
// only.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// parseLenient accepts shortened forms like "1" or "1.0" by zero-filling
// the missing components, so a bare "1.0" constraint matches a loaded
// "1.0.0".
func parseLenient(s string) (Version, error) {
	mv, err := mm.NewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return Version{}, err
	}
	v := Version{
		Major:      int(mv.Major()),
		Minor:      int(mv.Minor()),
		Patch:      int(mv.Patch()),
		Prerelease: mv.Prerelease(),
		Metadata:   mv.Metadata(),
	}
	return v, nil
}

// Op returns the parsed operator.
func (c Constraint) Op() Op {
	return c.op
}

// Target returns the parsed target version.
func (c Constraint) Target() Version {
	return c.target
}

// String returns the constraint as written, trimmed.
func (c Constraint) String() string {
	return c.raw
}

// Satisfies reports whether v meets the constraint. Caret keeps the
// major fixed, tilde keeps major and minor fixed, both requiring v >=
// target; this holds for 0.x majors too.
func (c Constraint) Satisfies(v Version) bool {
	switch c.op {
	case OpBare, OpExact:
		return v.Equal(c.target)
	case OpCaret:
		return v.Major == c.target.Major && v.Compare(c.target) >= 0
	case OpTilde:
		return v.Major == c.target.Major && v.Minor == c.target.Minor &&
			v.Compare(c.target) >= 0
	}

	mv, err := mm.NewVersion(v.String())
	if err != nil {
		return false
	}
	return c.checks.Check(mv)
}

// MaxSatisfying returns the highest version in candidates meeting the
// constraint.
func (c Constraint) MaxSatisfying(candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !c.Satisfies(candidate) {
			continue
		}
		if !found || candidate.Greater(best) {
			best = candidate
			found = true
		}
	}
	return best, found
}
