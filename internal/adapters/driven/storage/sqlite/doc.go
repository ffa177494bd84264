// Package sqlite writes knowledge graph snapshots to a SQLite database file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A snapshot file holds the document
// registry, every entity and relationship, and the statistics taken with them,
// so the graph can be inspected with any SQLite client.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Snapshots
//
// SaveGraph replaces the previous contents of the file in a single transaction.
// The file is an export target; the engine never reads its knowledge back from it.
package sqlite
