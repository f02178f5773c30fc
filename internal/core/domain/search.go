package domain

import (
	"fmt"
	"strings"
)

// NoEvidenceMessage is returned to agents when a query matches nothing.
const NoEvidenceMessage = "No relevant information found in the knowledge base."

// Evidence is a single retrieval hit with source attribution.
type Evidence struct {
	// Rank is the 1-based position in the result list.
	Rank int

	// Content is the chunk text.
	Content string

	// SourceName is the attribution label, "Unknown" when missing.
	SourceName string

	// SourceType is book or article when known.
	SourceType SourceType

	// URL is set for articles.
	URL string

	// ChunkIndex is the position of the chunk within its source.
	ChunkIndex int

	// Distance is the similarity distance reported by the index (lower is closer).
	Distance float64
}

// FormatEvidence renders hits as a cited evidence block for an agent.
func FormatEvidence(evidence []Evidence) string {
	if len(evidence) == 0 {
		return NoEvidenceMessage
	}

	var b strings.Builder
	b.WriteString("RELEVANT HISTORICAL EVIDENCE:\n\n")
	for _, e := range evidence {
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", e.Rank, e.SourceName, e.Content)
	}
	return b.String()
}
