package types

import "fmt"

// HierarchyLevel classifies a component in the tree. Levels are ordered by
// weight: a container may only hold components of strictly smaller weight.
// Microservice and utility are auxiliary kinds that sit outside the
// ordering and are exempt from weight checks.
type HierarchyLevel string

const (
	LevelApplication HierarchyLevel = "application"
	LevelModule      HierarchyLevel = "module"
	LevelSubmodule   HierarchyLevel = "submodule"
	LevelEpic        HierarchyLevel = "epic"
	LevelStory       HierarchyLevel = "story"
	LevelFeature     HierarchyLevel = "feature"
	LevelComponent   HierarchyLevel = "component"
	LevelWidget      HierarchyLevel = "widget"
	LevelTask        HierarchyLevel = "task"
	LevelSubtask     HierarchyLevel = "subtask"

	// Auxiliary kinds, level-less.
	LevelMicroservice HierarchyLevel = "microservice"
	LevelUtility      HierarchyLevel = "utility"
)

var levelWeights = map[HierarchyLevel]int{
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

// Weight returns the ordering weight of the level. Auxiliary kinds have
// weight zero.
func (l HierarchyLevel) Weight() int {
	return levelWeights[l]
}

// IsAuxiliary reports whether the level sits outside the weight ordering
// (microservice, utility).
func (l HierarchyLevel) IsAuxiliary() bool {
	return l == LevelMicroservice || l == LevelUtility
}

// Valid reports whether the level is a known hierarchy level or auxiliary
// kind.
func (l HierarchyLevel) Valid() bool {
	if l.IsAuxiliary() {
		return true
	}
	_, ok := levelWeights[l]
	return ok
}

// ParseLevel converts a string into a HierarchyLevel, failing on unknown
// values.
func ParseLevel(s string) (HierarchyLevel, error) {
	l := HierarchyLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown hierarchy level %q", s)
	}
	return l, nil
}

// Levels returns all ordered levels from heaviest to lightest, excluding
// auxiliary kinds.
func Levels() []HierarchyLevel {
	return []HierarchyLevel{
		LevelApplication, LevelModule, LevelSubmodule, LevelEpic,
		LevelStory, LevelFeature, LevelComponent, LevelWidget,
		LevelTask, LevelSubtask,
	}
}
