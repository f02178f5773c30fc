package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"topic or question to look up in the historical sources"`
}

// SearchOutput is the structured output of the search_knowledge tool.
type SearchOutput struct {
	Evidence []EvidenceOutput `json:"evidence"`
	Count    int              `json:"count"`
}

// EvidenceOutput is a single cited passage.
type EvidenceOutput struct {
	Rank       int     `json:"rank"`
	Source     string  `json:"source"`
	SourceType string  `json:"source_type,omitempty"`
	URL        string  `json:"url,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// AddArticleInput is the input schema for the add_article tool.
type AddArticleInput struct {
	URL string `json:"url" jsonschema:"address of the web article to add"`
}

// AddArticleOutput reports how many chunks were indexed.
type AddArticleOutput struct {
	Chunks int    `json:"chunks"`
	Note   string `json:"note,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_knowledge",
		Description: "Search the historical knowledge base for evidence on a topic. " +
			"Returns the most relevant passages with their sources for citation.",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_article",
			Description: "Fetch a web article and add it to the knowledge base",
		}, s.handleAddArticle)
	}
}

// handleSearch runs an agent query with k fixed at domain.DefaultAgentQueryResults.
// The text content is the formatted evidence block; no hits is not an error.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	evidence, err := s.ports.Retrieval.Search(ctx, input.Query, domain.DefaultAgentQueryResults)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Evidence: make([]EvidenceOutput, len(evidence)),
		Count:    len(evidence),
	}
	for i, e := range evidence {
		output.Evidence[i] = EvidenceOutput{
			Rank:       e.Rank,
			Source:     e.SourceName,
			SourceType: e.SourceType.String(),
			URL:        e.URL,
			ChunkIndex: e.ChunkIndex,
			Distance:   e.Distance,
			Content:    e.Content,
		}
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: domain.FormatEvidence(evidence)}},
	}
	return result, output, nil
}

// handleAddArticle indexes a web article. Too little extracted text is
// reported in the output rather than as a tool error.
func (s *Server) handleAddArticle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddArticleInput,
) (*mcp.CallToolResult, AddArticleOutput, error) {
	n, err := s.ports.Ingest.AddArticle(ctx, input.URL)
	if errors.Is(err, domain.ErrInsufficientContent) {
		return nil, AddArticleOutput{Note: "could not extract meaningful content from the article"}, nil
	}
	if err != nil {
		return nil, AddArticleOutput{}, err
	}
	return nil, AddArticleOutput{Chunks: n}, nil
}
