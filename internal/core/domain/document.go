package domain

import "fmt"

// SourceType classifies where a document came from.
type SourceType string

const (
	// SourceTypeBook is a PDF book from the local or synced library.
	SourceTypeBook SourceType = "book"

	// SourceTypeArticle is a scraped web article.
	SourceTypeArticle SourceType = "article"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	return t == SourceTypeBook || t == SourceTypeArticle
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// Document is a logical source unit after text extraction.
// It is consumed immediately by the chunker and never persisted itself.
type Document struct {
	// SourceName is the human-readable label used for attribution,
	// e.g. "[Book] Decline and Fall" or "[Article] Title (example.com)".
	SourceName string

	// SourceType is book or article.
	SourceType SourceType

	// URI is the original location (file path or URL).
	URI string

	// Title is the extracted or derived title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains extractor-specific key-value pairs
	// (page count, domain, ...).
	Metadata map[string]any
}

// BookSourceName returns the attribution label for a PDF book.
func BookSourceName(stem string) string {
	return "[Book] " + stem
}

// ArticleSourceName returns the attribution label for a web article.
// Titles are truncated to 50 characters and made filename-safe.
func ArticleSourceName(title, host string) string {
	safe := "untitled"
	if title != "" {
		runes := []rune(title)
		if len(runes) > 50 {
			runes = runes[:50]
		}
		if s := SafeFilename(string(runes)); s != "" {
			safe = s
		}
	}
	return fmt.Sprintf("[Article] %s (%s)", safe, host)
}

// Chunk is the unit of retrieval written to the vector index.
type Chunk struct {
	// ID is "<source_name>_<position>"; re-ingesting a source maps
	// every chunk back onto the same slot.
	ID string

	// Content is the trimmed chunk text.
	Content string

	// SourceName is copied from the parent document.
	SourceName string

	// SourceType is copied from the parent document.
	SourceType SourceType

	// Position is the 0-based chunk_index within the source.
	Position int

	// URL is set for articles only.
	URL string
}

// ChunkID builds the stable identifier for a chunk.
func ChunkID(sourceName string, position int) string {
	return fmt.Sprintf("%s_%d", sourceName, position)
}

// IndexMetadata returns the metadata map stored alongside the chunk.
func (c Chunk) IndexMetadata() map[string]any {
	meta := map[string]any{
		"source":      c.SourceName,
		"source_type": c.SourceType.String(),
		"chunk_index": c.Position,
	}
	if c.URL != "" {
		meta["url"] = c.URL
	}
	return meta
}
