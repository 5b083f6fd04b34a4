// Package filesystem provides sandboxed local-filesystem access for an
// agent/tool runtime. Every operation is confined to a single root directory
// fixed at construction time.
//
// The package is organized into specialized modules:
//   - paths: root-confined path resolution (pure path arithmetic)
//   - basic: core file operations (read, write, delete, exists, mkdir)
//   - operations: file manipulation (rename, copy, chmod)
//   - metadata: stat snapshots and MIME detection
//   - directory: lazy ignore-filtered pre-order traversal
//   - search: substring content search, filename find, recent files
//   - glob: pattern listing with ignore post-filtering
//   - watch: debounced change-notification sessions
//   - exec: subprocess execution with clamped timeouts
//   - formats: structured reads/writes (JSON, YAML, TOML)
//   - archives: ZIP and TAR archives with compression
//
// All operations:
//   - Resolve caller paths through the containment check first
//   - Apply the host-supplied ignore predicate at traversal time
//   - Return immutable snapshots, never live handles
//
// Example:
//
//	svc, err := filesystem.New("/srv/workspace")
//	if err != nil { ... }
//	matches, err := svc.Search("TODO", filesystem.SearchOptions{ContextBefore: 2})
package filesystem
