package driving

import (
	"context"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// RetrievalService answers topic queries from the knowledge base.
type RetrievalService interface {
	// Search returns up to k chunks most similar to query, nearest first.
	// A missing collection or no hits yields an empty slice and nil error.
	Search(ctx context.Context, query string, k int) ([]domain.Evidence, error)
}
