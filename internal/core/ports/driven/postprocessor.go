package driven

import (
	"context"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// PostProcessor is one stage of turning an extracted document into
// indexable chunks.
type PostProcessor interface {
	// Name identifies the stage in PipelineConfig and in errors.
	Name() string

	// Process receives the chunks produced so far (nil for the first
	// stage) and returns the new set. A chunking stage ignores its input
	// and splits doc.Content; later stages may rewrite chunk text but
	// must keep IDs and ChunkIndex stable.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a document into its final chunk sequence.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
