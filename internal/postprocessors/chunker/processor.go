// Package chunker provides a sentence-aware text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document content into overlapping chunks, preferring
// to end a chunk right after a sentence-ending period.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
//
// Positions are counted in characters (runes), so multi-byte text is
// never split inside a character. The output is a pure function of the
// document content, source name and settings.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	text := []rune(doc.Content)
	textLen := len(text)

	var url string
	if doc.SourceType == domain.SourceTypeArticle {
		url = doc.URI
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, textLen/step+1)

	start := 0
	for start < textLen {
		end := start + p.chunkSize
		final := end >= textLen
		if final {
			end = textLen
		} else if cut := lastPeriod(text[start:end]); cut > p.chunkSize/2 {
			end = start + cut + 1
		}

		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.SourceName, position),
			Content:    strings.TrimSpace(string(text[start:end])),
			SourceName: doc.SourceName,
			SourceType: doc.SourceType,
			Position:   position,
			URL:        url,
		})

		if final {
			break
		}

		next := end - p.overlap
		if next <= start {
			// A short sentence-trimmed window with a large overlap would stall.
			next = end
		}
		start = next
	}

	return chunks, nil
}

// lastPeriod returns the index of the last '.' in window, or -1.
func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
