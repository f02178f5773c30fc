// Package sqlite provides the persistent vector store used for the
// knowledge base.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each collection row owns a set of
// embedding rows holding the chunk text, its JSON metadata and its vector as
// a little-endian float32 blob. Queries are brute-force cosine distance over
// the collection, which is ample for a few thousand book chunks.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data dir>/knowledge.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
