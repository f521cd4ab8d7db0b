// Package sqlite provides a persistent embedding cache.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Vectors are stored as little-endian float32 blobs keyed by the
// linker's content key, so re-running a document skips the embedding calls
// for topics whose text has not changed.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and
// applied versions are recorded in schema_migrations.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode
// with a busy timeout so the watcher and MCP server can share one file.
package sqlite
