package driven

import "context"

// VectorStore manages named collections of embedded documents.
// Embedding is the store's concern: callers hand over text and
// receive text back, never vectors.
type VectorStore interface {
	// Exists reports whether a collection with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a new collection with the given metadata.
	// Returns domain.ErrInvalidInput if it already exists.
	CreateCollection(ctx context.Context, name string, metadata map[string]any) (Collection, error)

	// GetCollection opens an existing collection.
	// Returns domain.ErrNotFound if it does not exist.
	GetCollection(ctx context.Context, name string) (Collection, error)

	// GetOrCreateCollection opens the collection, creating it if absent.
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (Collection, error)

	// DeleteCollection drops a collection and all its entries.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}

// Collection is a named set of documents with metadata and embeddings.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Metadata returns the metadata stored at creation.
	Metadata() map[string]any

	// Add embeds and stores documents. ids, documents and metadatas
	// must have equal length. An existing id is overwritten in place.
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error

	// Query returns the nResults closest documents for each query text,
	// nearest first.
	Query(ctx context.Context, queryTexts []string, nResults int) (*QueryResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// QueryResult holds per-query result lists. The outer slice is indexed by
// query text, the inner slices are aligned and ordered nearest first.
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]map[string]any

	// Distances are cosine distances (1 - similarity); lower is closer.
	Distances [][]float64
}
