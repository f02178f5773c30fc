package driven

import "context"

// LocalLibrary lists and watches the local PDF directories.
type LocalLibrary interface {
	// ListPDFs returns the PDFs directly inside the given directories,
	// deduplicated by resolved absolute path and sorted.
	ListPDFs(ctx context.Context, dirs ...string) ([]string, error)

	// Watch emits paths of PDFs added to dir until ctx is cancelled.
	Watch(ctx context.Context, dir string) (<-chan string, error)

	// Close stops all watchers.
	Close() error
}
