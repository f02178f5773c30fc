package drive

import (
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// buildQuery returns the listing query for non-trashed files of mimeType
// directly inside folderID.
func buildQuery(folderID, mimeType string) string {
	return fmt.Sprintf("mimeType='%s' and trashed=false and '%s' in parents",
		escapeQuery(mimeType), escapeQuery(folderID))
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// toRemoteFile converts a Drive file to a domain.RemoteFile.
func toRemoteFile(f *drive.File) domain.RemoteFile {
	return domain.RemoteFile{
		ID:           f.Id,
		Name:         f.Name,
		Size:         f.Size,
		ModifiedTime: f.ModifiedTime,
	}
}
