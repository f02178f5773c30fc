package driving

import (
	"context"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// RebuildOptions controls a full knowledge base rebuild.
type RebuildOptions struct {
	// SyncDrive runs Drive synchronisation before collecting PDFs.
	SyncDrive bool

	// FolderID overrides the configured Drive folder.
	FolderID string

	// DriveDir overrides the configured Drive cache directory.
	DriveDir string

	// Force re-downloads every Drive file.
	Force bool
}

// IngestService builds and extends the knowledge base.
type IngestService interface {
	// Rebuild deletes and recreates the collection from every local PDF.
	Rebuild(ctx context.Context, opts RebuildOptions) (*domain.IngestReport, error)

	// AddArticle fetches a web article and appends its chunks.
	// Returns the number of chunks added.
	AddArticle(ctx context.Context, url string) (int, error)

	// AddFile appends one local PDF as a book.
	// Returns the number of chunks added.
	AddFile(ctx context.Context, path string) (int, error)
}
