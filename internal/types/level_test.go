package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelWeights(t *testing.T) {
	expected := map[HierarchyLevel]int{
		LevelApplication: 100,
		LevelModule:      90,
		LevelSubmodule:   80,
		LevelEpic:        70,
		LevelStory:       60,
		LevelFeature:     50,
		LevelComponent:   40,
		LevelWidget:      30,
		LevelTask:        20,
		LevelSubtask:     10,
	}
	for level, weight := range expected {
		assert.Equal(t, weight, level.Weight(), "level %s", level)
	}
}

func TestAuxiliaryLevels(t *testing.T) {
	assert.True(t, LevelMicroservice.IsAuxiliary())
	assert.True(t, LevelUtility.IsAuxiliary())
	assert.Equal(t, 0, LevelMicroservice.Weight())
	assert.Equal(t, 0, LevelUtility.Weight())

	assert.False(t, LevelModule.IsAuxiliary())
	assert.False(t, LevelApplication.IsAuxiliary())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("module")
	require.NoError(t, err)
	assert.Equal(t, LevelModule, level)

	_, err = ParseLevel("department")
	assert.Error(t, err)
}

func TestLevelValid(t *testing.T) {
	for _, level := range Levels() {
		assert.True(t, level.Valid(), "level %s", level)
	}
	assert.False(t, HierarchyLevel("bogus").Valid())
}

func TestNewComponent(t *testing.T) {
	c := NewComponent("auth", LevelModule)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "auth", c.Name)
	assert.Equal(t, LevelModule, c.Level)
	assert.Empty(t, c.ParentID)
	assert.Empty(t, c.ChildIDs)
	assert.NotNil(t, c.DependencyIDs)
	assert.False(t, c.CreatedAt.IsZero())

	other := NewComponent("auth", LevelModule)
	assert.NotEqual(t, c.ID, other.ID)
}
