package mcp

import (
	"context"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	evidence []domain.Evidence
	err      error
	query    string
	k        int
}

func (m *mockRetrievalService) Search(_ context.Context, query string, k int) ([]domain.Evidence, error) {
	m.query = query
	m.k = k
	return m.evidence, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	chunks int
	err    error
	url    string
}

func (m *mockIngestService) Rebuild(context.Context, driving.RebuildOptions) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) AddArticle(_ context.Context, url string) (int, error) {
	m.url = url
	return m.chunks, m.err
}

func (m *mockIngestService) AddFile(context.Context, string) (int, error) {
	return m.chunks, m.err
}
