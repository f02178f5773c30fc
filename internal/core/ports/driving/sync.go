package driving

import "context"

// Synchronizer reconciles a remote folder with a local cache directory.
type Synchronizer interface {
	// Sync downloads new or changed PDFs from folderID into destDir and
	// returns the local path of every remote PDF, in listing order.
	// When force is true every file is downloaded.
	Sync(ctx context.Context, folderID, destDir string, force bool) ([]string, error)
}
