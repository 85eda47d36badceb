package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	strataerrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/semver"
)

func TestRegisterVersion(t *testing.T) {
	m := New()

	require.NoError(t, m.RegisterVersion("core", "1.0.0"))
	require.NoError(t, m.RegisterVersion("core", "1.2.0"))

	current, ok := m.CurrentVersion("core")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", current.String())

	available := m.AvailableVersions("core")
	require.Len(t, available, 2)
	assert.Equal(t, "1.0.0", available[0].String())
	assert.Equal(t, "1.2.0", available[1].String())
}

func TestRegisterVersion_Invalid(t *testing.T) {
	m := New()

	err := m.RegisterVersion("core", "not-a-version")
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindInvalidVersion))
	assert.Empty(t, m.Identifiers())
}

func TestRegisterVersion_DuplicateSetsCurrent(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterVersion("core", "1.0.0"))
	require.NoError(t, m.RegisterVersion("core", "1.2.0"))

	// Re-registering an older version keeps the set deduplicated but
	// moves current back to it.
	require.NoError(t, m.RegisterVersion("core", "1.0.0"))

	assert.Len(t, m.AvailableVersions("core"), 2)
	current, _ := m.CurrentVersion("core")
	assert.Equal(t, "1.0.0", current.String())
	assert.Len(t, m.History("core"), 3)
}

func TestRegisterRelease_History(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterRelease("core", "1.0.0", "initial release", "abc123"))

	history := m.History("core")
	require.Len(t, history, 1)
	assert.Equal(t, "initial release", history[0].Changelog)
	assert.Equal(t, "abc123", history[0].SourceRef)
	assert.False(t, history[0].Timestamp.IsZero())
}

func TestBump(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterVersion("core", "1.4.9"))

	next, err := m.Bump("core", semver.BumpMinor)
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", next.String())

	current, _ := m.CurrentVersion("core")
	assert.Equal(t, "1.5.0", current.String())
	assert.Len(t, m.AvailableVersions("core"), 2)
}

func TestBump_UnknownComponent(t *testing.T) {
	m := New()

	_, err := m.Bump("ghost", semver.BumpPatch)
	require.Error(t, err)
	assert.True(t, strataerrors.IsKind(err, strataerrors.KindModuleNotFound))
}

func TestSetRequirement(t *testing.T) {
	m := New()

	require.NoError(t, m.SetRequirement("ui", "1.0.0", "core", "^1.0.0"))

	reqs := m.Requirements("ui", "1.0.0")
	require.NotNil(t, reqs)
	assert.Equal(t, "^1.0.0", reqs["core"])

	assert.Nil(t, m.Requirements("ui", "2.0.0"))
	assert.Nil(t, m.Requirements("ghost", "1.0.0"))
}

func TestSetRequirement_CanonicalVersionKey(t *testing.T) {
	m := New()

	// A "v" prefix and a zero-filled short form both land on the same
	// canonical matrix entry.
	require.NoError(t, m.SetRequirement("ui", "v1.0.0", "core", "^2.0.0"))

	reqs := m.Requirements("ui", "1.0.0")
	require.NotNil(t, reqs)
	assert.Equal(t, "^2.0.0", reqs["core"])

	// Lookups canonicalize too.
	assert.NotNil(t, m.Requirements("ui", "v1.0.0"))

	_, stored := m.Compatibility["ui"]["1.0.0"]
	assert.True(t, stored)
	_, raw := m.Compatibility["ui"]["v1.0.0"]
	assert.False(t, raw)
}

func TestSetRequirement_Invalid(t *testing.T) {
	m := New()

	err := m.SetRequirement("ui", "bogus", "core", "^1.0.0")
	assert.Error(t, err)

	err = m.SetRequirement("ui", "1.0.0", "core", "!!1.0")
	assert.Error(t, err)

	assert.Empty(t, m.Compatibility)
}

func TestOnSave(t *testing.T) {
	m := New()
	saves := 0
	m.OnSave(func(saved *Manifest) error {
		saves++
		assert.Same(t, m, saved)
		return nil
	})

	require.NoError(t, m.RegisterVersion("core", "1.0.0"))
	require.NoError(t, m.SetRequirement("ui", "1.0.0", "core", "^1.0.0"))
	assert.Equal(t, 2, saves)
}

func TestOnSave_FailureKeepsMutation(t *testing.T) {
	m := New()
	saveErr := errors.New("disk full")
	m.OnSave(func(*Manifest) error { return saveErr })

	err := m.RegisterVersion("core", "1.0.0")
	assert.ErrorIs(t, err, saveErr)

	// The in-memory registration stays applied.
	current, ok := m.CurrentVersion("core")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", current.String())
}

func TestIdentifiers_Sorted(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterVersion("ui", "1.0.0"))
	require.NoError(t, m.RegisterVersion("core", "1.0.0"))
	require.NoError(t, m.RegisterVersion("auth", "1.0.0"))

	assert.Equal(t, []string{"auth", "core", "ui"}, m.Identifiers())
}
