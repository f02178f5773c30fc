package driven

import (
	"context"
	"io"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// RemoteFileStore lists and downloads files from a remote folder.
// Implemented by the Google Drive connector.
type RemoteFileStore interface {
	// ListFiles returns every non-trashed file of the given MIME type
	// directly inside the folder, across all pages.
	ListFiles(ctx context.Context, folderID, mimeType string) ([]domain.RemoteFile, error)

	// Download streams the file content into w.
	Download(ctx context.Context, fileID string, w io.Writer) error
}
