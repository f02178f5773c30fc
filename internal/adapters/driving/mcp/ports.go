package mcp

import (
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers knowledge base queries.
	Retrieval driving.RetrievalService

	// Ingest adds articles on request. Optional: without it the
	// add_article tool is not registered.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
