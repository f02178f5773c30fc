package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

const unknownSource = "Unknown"

// RetrievalService answers queries from the knowledge base. It never
// writes to the index.
type RetrievalService struct {
	store      driven.VectorStore
	collection string
}

// NewRetrievalService creates a retrieval service over the named collection.
func NewRetrievalService(store driven.VectorStore, collection string) *RetrievalService {
	return &RetrievalService{
		store:      store,
		collection: collection,
	}
}

// Search returns up to k chunks closest to query, nearest first.
// A missing collection is reported as no evidence rather than an error.
func (s *RetrievalService) Search(ctx context.Context, query string, k int) ([]domain.Evidence, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []domain.Evidence{}, nil
	}

	coll, err := s.store.GetCollection(ctx, s.collection)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("retrieval: collection %s does not exist", s.collection)
			return []domain.Evidence{}, nil
		}
		return nil, fmt.Errorf("open collection %s: %w", s.collection, err)
	}

	res, err := coll.Query(ctx, []string{query}, k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}
	if res == nil || len(res.Documents) == 0 {
		return []domain.Evidence{}, nil
	}

	docs := res.Documents[0]
	evidence := make([]domain.Evidence, 0, len(docs))
	for i, text := range docs {
		e := domain.Evidence{
			Rank:       i + 1,
			Content:    text,
			SourceName: unknownSource,
		}
		if len(res.Metadatas) > 0 && i < len(res.Metadatas[0]) {
			applyMetadata(&e, res.Metadatas[0][i])
		}
		if len(res.Distances) > 0 && i < len(res.Distances[0]) {
			e.Distance = res.Distances[0][i]
		}
		evidence = append(evidence, e)
	}

	logger.Debug("retrieval: %d hit(s) for %q", len(evidence), query)
	return evidence, nil
}

// applyMetadata copies index metadata onto an evidence record. Values may
// come back as any numeric type depending on the store's decoding.
func applyMetadata(e *domain.Evidence, meta map[string]any) {
	if meta == nil {
		return
	}
	if v, ok := meta["source"].(string); ok && v != "" {
		e.SourceName = v
	}
	if v, ok := meta["source_type"].(string); ok {
		e.SourceType = domain.SourceType(v)
	}
	if v, ok := meta["url"].(string); ok {
		e.URL = v
	}
	switch v := meta["chunk_index"].(type) {
	case int:
		e.ChunkIndex = v
	case int64:
		e.ChunkIndex = int(v)
	case float64:
		e.ChunkIndex = int(v)
	}
}
