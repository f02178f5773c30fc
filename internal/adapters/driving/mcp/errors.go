// Package mcp provides an MCP (Model Context Protocol) server adapter for engineroom.
// It lets AI agents consult the historical knowledge base as a tool.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
