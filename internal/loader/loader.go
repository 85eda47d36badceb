// Package loader is the external layer between the engine and durable
// storage. It reads a strata.yml project file into engine objects (the
// component tree, the version manifest, and the compatibility matrix)
// and persists the project back. The engine itself only ever sees the
// in-memory records built here.
//
// The hierarchy is keyed by generated identities; the manifest and the
// compatibility matrix are keyed by component name, which the project
// file requires to be unique.
package loader

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/manifest"
	"github.com/conneroisu/strata/internal/registry"
	"github.com/conneroisu/strata/internal/rules"
	"github.com/conneroisu/strata/internal/semver"
	"github.com/conneroisu/strata/internal/types"
)

// Document is the on-disk shape of a project file.
type Document struct {
	Components    []ComponentNode                         `yaml:"components"`
	Versions      map[string]VersionEntry                 `yaml:"versions,omitempty"`
	Compatibility map[string]map[string]map[string]string `yaml:"compatibility,omitempty"`
}

// ComponentNode is one component in the project file, with its subtree
// inline.
type ComponentNode struct {
	Name         string                 `yaml:"name"`
	Level        string                 `yaml:"level"`
	Children     []ComponentNode        `yaml:"children,omitempty"`
	Dependencies []string               `yaml:"dependencies,omitempty"`
	Capabilities map[string]interface{} `yaml:"capabilities,omitempty"`
	Config       map[string]interface{} `yaml:"config,omitempty"`
}

// VersionEntry is the serialized version info for one component.
type VersionEntry struct {
	Current   string         `yaml:"current"`
	Available []string       `yaml:"available,omitempty"`
	History   []HistoryEntry `yaml:"history,omitempty"`
}

// HistoryEntry is one serialized version-history record.
type HistoryEntry struct {
	Version   string    `yaml:"version"`
	Timestamp time.Time `yaml:"timestamp"`
	Changelog string    `yaml:"changelog,omitempty"`
	SourceRef string    `yaml:"source_ref,omitempty"`
}

// Project bundles the engine objects built from one project file.
type Project struct {
	Manager  *registry.Manager
	Manifest *manifest.Manifest
	// RootIDs holds the top-level component identities in file order.
	RootIDs []string

	byName map[string]*types.Component
}

// ComponentByName resolves a project-file name to its component record.
func (p *Project) ComponentByName(name string) (*types.Component, bool) {
	c, ok := p.byName[name]
	return c, ok
}

// Load reads and builds a project from the file at path.
func Load(path string, limits rules.Limits, logger logging.Logger) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	project, err := Parse(data, limits, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return project, nil
}

// Parse builds a project from raw project-file bytes.
func Parse(data []byte, limits rules.Limits, logger logging.Logger) (*Project, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}

	project := &Project{
		Manager:  registry.NewManager(limits, logger),
		Manifest: manifest.New(),
		byName:   make(map[string]*types.Component),
	}

	for _, node := range doc.Components {
		root, err := project.buildComponent(node)
		if err != nil {
			return nil, err
		}
		if err := project.Manager.AddRoot(root); err != nil {
			return nil, err
		}
		if err := project.attachChildren(root, node.Children); err != nil {
			return nil, err
		}
		project.RootIDs = append(project.RootIDs, root.ID)
	}

	if err := project.linkDependencies(doc.Components); err != nil {
		return nil, err
	}
	if err := project.loadVersions(doc.Versions); err != nil {
		return nil, err
	}
	if err := project.loadCompatibility(doc.Compatibility); err != nil {
		return nil, err
	}

	return project, nil
}

func (p *Project) buildComponent(node ComponentNode) (*types.Component, error) {
	if node.Name == "" {
		return nil, fmt.Errorf("component with empty name")
	}
	if _, dup := p.byName[node.Name]; dup {
		return nil, fmt.Errorf("duplicate component name %q", node.Name)
	}
	level, err := types.ParseLevel(node.Level)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", node.Name, err)
	}

	c := types.NewComponent(node.Name, level)
	c.Capabilities = node.Capabilities
	c.Config = node.Config
	p.byName[node.Name] = c
	return c, nil
}

func (p *Project) attachChildren(parent *types.Component, nodes []ComponentNode) error {
	for _, node := range nodes {
		child, err := p.buildComponent(node)
		if err != nil {
			return err
		}
		if err := p.Manager.AddChild(child, parent); err != nil {
			return fmt.Errorf("attach %q under %q: %w", node.Name, parent.Name, err)
		}
		if err := p.attachChildren(child, node.Children); err != nil {
			return err
		}
	}
	return nil
}

// linkDependencies runs after the whole tree is built so forward
// references between siblings work.
func (p *Project) linkDependencies(nodes []ComponentNode) error {
	for _, node := range nodes {
		c := p.byName[node.Name]
		for _, depName := range node.Dependencies {
			dep, ok := p.byName[depName]
			if !ok {
				return fmt.Errorf("component %q depends on unknown component %q",
					node.Name, depName)
			}
			if err := p.Manager.AddDependency(c.ID, dep.ID); err != nil {
				return fmt.Errorf("dependency %q -> %q: %w", node.Name, depName, err)
			}
		}
		if err := p.linkDependencies(node.Children); err != nil {
			return err
		}
	}
	return nil
}

// loadVersions rebuilds manifest entries directly, preserving the
// history timestamps recorded in the file.
func (p *Project) loadVersions(entries map[string]VersionEntry) error {
	for _, name := range sortedEntryKeys(entries) {
		entry := entries[name]

		info := &manifest.ModuleVersionInfo{Identifier: name}

		current, err := semver.Parse(entry.Current)
		if err != nil {
			return fmt.Errorf("versions %q: %w", name, err)
		}
		info.Current = current

		seen := map[string]struct{}{}
		for _, raw := range append(entry.Available, entry.Current) {
			v, err := semver.Parse(raw)
			if err != nil {
				return fmt.Errorf("versions %q: %w", name, err)
			}
			if _, dup := seen[v.String()]; dup {
				continue
			}
			seen[v.String()] = struct{}{}
			info.Available = append(info.Available, v)
		}
		semver.Sort(info.Available)

		for _, h := range entry.History {
			v, err := semver.Parse(h.Version)
			if err != nil {
				return fmt.Errorf("versions %q history: %w", name, err)
			}
			info.History = append(info.History, manifest.VersionRecord{
				Version:   v,
				Timestamp: h.Timestamp,
				Changelog: h.Changelog,
				SourceRef: h.SourceRef,
			})
		}

		p.Manifest.Modules[name] = info
	}
	return nil
}

func (p *Project) loadCompatibility(matrix map[string]map[string]map[string]string) error {
	for component, byVersion := range matrix {
		for version, reqs := range byVersion {
			for dep, constraint := range reqs {
				if err := p.Manifest.SetRequirement(component, version, dep, constraint); err != nil {
					return fmt.Errorf("compatibility %s@%s -> %s: %w",
						component, version, dep, err)
				}
			}
		}
	}
	return nil
}

// Snapshot serializes the current engine state back into a Document.
func (p *Project) Snapshot() *Document {
	doc := &Document{}

	for _, rootID := range p.RootIDs {
		if root, ok := p.Manager.FindByID(rootID); ok {
			doc.Components = append(doc.Components, p.snapshotComponent(root))
		}
	}

	if len(p.Manifest.Modules) > 0 {
		doc.Versions = make(map[string]VersionEntry, len(p.Manifest.Modules))
		for _, id := range p.Manifest.Identifiers() {
			info := p.Manifest.Modules[id]
			entry := VersionEntry{Current: info.Current.String()}
			for _, v := range info.Available {
				entry.Available = append(entry.Available, v.String())
			}
			for _, record := range info.History {
				entry.History = append(entry.History, HistoryEntry{
					Version:   record.Version.String(),
					Timestamp: record.Timestamp,
					Changelog: record.Changelog,
					SourceRef: record.SourceRef,
				})
			}
			doc.Versions[id] = entry
		}
	}

	if len(p.Manifest.Compatibility) > 0 {
		doc.Compatibility = p.Manifest.Compatibility
	}

	return doc
}

func (p *Project) snapshotComponent(c *types.Component) ComponentNode {
	node := ComponentNode{
		Name:         c.Name,
		Level:        string(c.Level),
		Capabilities: c.Capabilities,
		Config:       c.Config,
	}

	for _, depID := range c.DependencyList() {
		if dep, ok := p.Manager.FindByID(depID); ok {
			node.Dependencies = append(node.Dependencies, dep.Name)
		}
	}
	sort.Strings(node.Dependencies)

	for _, childID := range c.ChildIDs {
		if child, ok := p.Manager.FindByID(childID); ok {
			node.Children = append(node.Children, p.snapshotComponent(child))
		}
	}
	return node
}

// Save writes the project back to the file at path.
func Save(p *Project, path string) error {
	data, err := yaml.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}

func sortedEntryKeys(entries map[string]VersionEntry) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
