// Package internal contains the core implementation packages for strata.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the strata CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: Shared component, level, and event type definitions
//   - registry: Component arena, hierarchy manager, and tree validation
//   - graph: Dependency graph with combined cycle detection
//   - rules: Pluggable structural validation rules
//   - events: Bubble and broadcast message propagation
//   - semver: Version model, comparison, and constraint parsing
//   - manifest: Per-component version info and the compatibility matrix
//   - resolver: Compatibility checking and greedy conflict resolution
//   - loader: Project file parsing and persistence
//   - config: Configuration management backed by Viper
//   - logging: Structured logging built on log/slog
//   - errors: Structured engine errors with a closed kind set
//
// # Inter-Package Communication
//
// Packages communicate through well-defined interfaces:
//
//   - Registry owns all component records; other packages resolve
//     identities through its lookup view rather than holding pointers
//   - Graph mirrors both structural and dependency edges so cycle checks
//     see the combined direction space
//   - Manifest feeds the resolver; neither touches durable storage
//   - Loader sits at the boundary, translating project files into engine
//     objects and back
//
// # Concurrency Model
//
// The engine follows a single-writer contract: structural mutations are
// serialized by one logical owner, and read-only queries may interleave
// with each other but not with a concurrent mutation. Watcher channels
// are buffered and never block the mutation path.
//
// For detailed documentation, see the individual package documentation.
package internal
