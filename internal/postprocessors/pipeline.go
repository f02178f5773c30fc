// Package postprocessors turns extracted documents into indexable chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// Pipeline runs post-processing stages in order and checks that the
// result is a well-formed chunk sequence for the document: positions run
// 0..n-1 without gaps and every ID is domain.ChunkID(source, position).
type Pipeline struct {
	processors []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline returns a pipeline running processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process chunks doc. A pipeline with no stages yields no chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: processor %s: %w", doc.SourceName, processor.Name(), err)
		}
	}

	if err := checkSequence(doc.SourceName, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

func checkSequence(sourceName string, chunks []domain.Chunk) error {
	for i, c := range chunks {
		if c.Position != i {
			return fmt.Errorf("%w: %s: chunk %d has position %d", domain.ErrInvalidInput, sourceName, i, c.Position)
		}
		if want := domain.ChunkID(sourceName, i); c.ID != want {
			return fmt.Errorf("%w: %s: chunk %d has id %q, want %q", domain.ErrInvalidInput, sourceName, i, c.ID, want)
		}
	}
	return nil
}
