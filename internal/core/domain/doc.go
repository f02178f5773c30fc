// Package domain defines the core business entities for engineroom.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A book or article after text extraction
//   - Chunk: A retrievable unit within a document
//   - RemoteFile / LocalFile: Listing records reconciled by the synchroniser
//   - IngestReport: Per-document outcomes of an ingestion run
//   - Evidence: A retrieval hit with source attribution
//   - Settings: Explicit runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
