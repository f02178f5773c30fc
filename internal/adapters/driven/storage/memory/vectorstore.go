package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/vectormath"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// Ensure VectorStore and Collection implement the interfaces.
var (
	_ driven.VectorStore = (*VectorStore)(nil)
	_ driven.Collection  = (*Collection)(nil)
)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Similarity search is brute-force cosine distance; suitable for tests
// and small ephemeral knowledge bases.
type VectorStore struct {
	mu          sync.RWMutex
	embedder    driven.EmbeddingService
	collections map[string]*Collection
}

// NewVectorStore creates an empty store that embeds text with embedder.
func NewVectorStore(embedder driven.EmbeddingService) *VectorStore {
	return &VectorStore{
		embedder:    embedder,
		collections: make(map[string]*Collection),
	}
}

// Exists reports whether the named collection exists.
func (s *VectorStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// CreateCollection creates a new collection.
func (s *VectorStore) CreateCollection(_ context.Context, name string, metadata map[string]any) (driven.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil, fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidInput, name)
	}

	c := &Collection{
		name:     name,
		metadata: maps.Clone(metadata),
		embedder: s.embedder,
		index:    make(map[string]int),
	}
	s.collections[name] = c
	return c, nil
}

// GetCollection returns an existing collection.
func (s *VectorStore) GetCollection(_ context.Context, name string) (driven.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	return c, nil
}

// GetOrCreateCollection returns the collection, creating it if absent.
func (s *VectorStore) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (driven.Collection, error) {
	if ok, _ := s.Exists(ctx, name); ok {
		return s.GetCollection(ctx, name)
	}
	return s.CreateCollection(ctx, name, metadata)
}

// DeleteCollection removes the collection; a missing one is ignored.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Close releases nothing; the embedder is owned by the caller.
func (s *VectorStore) Close() error {
	return nil
}

type entry struct {
	id       string
	document string
	metadata map[string]any
	vector   []float32
}

// Collection is an in-memory collection. Entries keep insertion order;
// re-adding an id overwrites it in place.
type Collection struct {
	mu       sync.RWMutex
	name     string
	metadata map[string]any
	embedder driven.EmbeddingService
	entries  []entry
	index    map[string]int
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Metadata returns a copy of the collection metadata.
func (c *Collection) Metadata() map[string]any {
	return maps.Clone(c.metadata)
}

// Add embeds and upserts documents.
func (c *Collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: ids, documents and metadatas lengths differ (%d, %d, %d)",
			domain.ErrInvalidInput, len(ids), len(documents), len(metadatas))
	}
	if len(ids) == 0 {
		return nil
	}
	if c.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	vectors, err := c.embedder.EmbedBatch(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(documents) {
		return fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(documents))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		e := entry{
			id:       id,
			document: documents[i],
			metadata: maps.Clone(metadatas[i]),
			vector:   vectors[i],
		}
		if pos, ok := c.index[id]; ok {
			c.entries[pos] = e
			continue
		}
		c.index[id] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return nil
}

// Query returns the nResults nearest entries for each query text.
func (c *Collection) Query(ctx context.Context, queryTexts []string, nResults int) (*driven.QueryResult, error) {
	res := &driven.QueryResult{}
	if len(queryTexts) == 0 {
		return res, nil
	}
	if c.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors, err := c.embedder.EmbedBatch(ctx, queryTexts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, qv := range vectors {
		dists := make([]float64, len(c.entries))
		for i, e := range c.entries {
			dists[i] = vectormath.CosineDistance(qv, e.vector)
		}

		nearest := vectormath.Nearest(dists, nResults)
		ids := make([]string, len(nearest))
		docs := make([]string, len(nearest))
		metas := make([]map[string]any, len(nearest))
		ds := make([]float64, len(nearest))
		for i, idx := range nearest {
			e := c.entries[idx]
			ids[i] = e.id
			docs[i] = e.document
			metas[i] = maps.Clone(e.metadata)
			ds[i] = dists[idx]
		}

		res.IDs = append(res.IDs, ids)
		res.Documents = append(res.Documents, docs)
		res.Metadatas = append(res.Metadatas, metas)
		res.Distances = append(res.Distances, ds)
	}
	return res, nil
}

// Count returns the number of stored entries.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}
