package domain

import "errors"

// Domain errors represent business logic failures.
// Callers wrap them with context and test with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown MIME type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or not reachable. Nothing can be indexed or queried without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Ingestion Errors.

	// ErrFetch indicates a network or non-2xx HTTP failure.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates an unreadable or empty source document.
	ErrExtraction = errors.New("extraction failed")

	// ErrInsufficientContent indicates the extracted text is too short to index.
	// Callers treat it as a no-op rather than a crash.
	ErrInsufficientContent = errors.New("insufficient content")

	// ErrNoDocuments indicates a rebuild found no source documents.
	ErrNoDocuments = errors.New("no source documents found")

	// Sync Errors.

	// ErrSync indicates the remote synchronisation step failed
	// (missing folder id, authentication, listing or download failure).
	ErrSync = errors.New("sync failed")
)
