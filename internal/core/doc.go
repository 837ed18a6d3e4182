// Package core provides the operation surface of the table workspace.
//
// This package owns the named table registry and is the only place where
// computed snapshots become visible. It is independent of any transport and
// is used by the web handlers, the seed loader, and tests alike.
//
// # Architecture
//
//   - Workspace: the registry of named tables, each with its own bounded
//     revision history (see package revision).
//   - Transformations: edits, joins, concatenation, pivot and unpivot are
//     pure functions from package transform. The Workspace reads the
//     current snapshots, calls them, and commits the result.
//   - Audit: every state change is reported to an audit.Recorder.
//
// # Committing
//
// Structural edits ([Workspace.ApplyEdit]) and history moves commit
// directly. Join, Concat, Pivot and Unpivot only compute; the caller then
// chooses [Workspace.CommitAsSame] to push the result onto a table's history
// or [Workspace.CommitAsNew] to register it as a new table named
// "Query 1", "Query 2", and so on.
//
// # Concurrency
//
// The registry is guarded by one RWMutex and each table's history by its
// own Mutex. The registry lock is never held while a transformation runs,
// and a table lock is never held while acquiring the registry lock.
//
// # Error Handling
//
// Operations return sentinel errors from this package and from transform
// and revision, wrapped with context. [MapError] maps any of them to a
// user-facing message with a support code:
//
//   - HIST001-HIST002: history boundaries
//   - SEL001-SEL004: column and row selection
//   - TBL001-TBL005: registry errors
//   - COL001-COL002, PIV001-PIV003, OPT001-OPT002: transformation arguments
//   - FILE001-FILE005, IMP001: import errors
//   - REQ001-REQ002, RATE001: request errors
package core
