package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure Library implements the interface.
var _ driven.LocalLibrary = (*Library)(nil)

// pdfExt is compared case-insensitively.
const pdfExt = ".pdf"

// Library lists and watches local PDF directories.
type Library struct {
	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a new local library.
func New() *Library {
	return &Library{}
}

// ListPDFs returns the PDFs directly inside each directory, deduplicated
// by resolved absolute path and sorted. Directories that do not exist
// are skipped; hidden files are ignored.
func (l *Library) ListPDFs(ctx context.Context, dirs ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !IsPDF(entry.Name()) || isHidden(entry.Name()) {
				continue
			}
			resolved, err := resolve(filepath.Join(dir, entry.Name()))
			if err != nil {
				logger.Warn("skipping %s: %v", entry.Name(), err)
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			paths = append(paths, resolved)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch emits the path of every PDF created or rewritten in dir until
// ctx is cancelled, at which point the channel is closed.
func (l *Library) Watch(ctx context.Context, dir string) (<-chan string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, errors.New("library is closed")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path error: %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	l.watchers = append(l.watchers, watcher)

	paths := make(chan string)
	go func() {
		defer close(paths)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				path, ok := handleFsEvent(event)
				if !ok {
					continue
				}
				select {
				case paths <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error on %s: %v", dir, err)
			}
		}
	}()

	return paths, nil
}

// Close stops all watchers. It is safe to call more than once.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for _, w := range l.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.watchers = nil
	return errors.Join(errs...)
}

// handleFsEvent maps a filesystem event to a PDF path worth ingesting.
// Only creations and writes of visible PDF files qualify.
func handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if !IsPDF(name) || isHidden(name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// IsPDF reports whether the file name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), pdfExt)
}

// isHidden reports whether the base name starts with a dot.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// resolve returns the absolute path with symlinks evaluated.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
