package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// DefaultSettleTime is how long a file must stay unchanged before it is
// ingested. Copying a large PDF produces a burst of write events.
const DefaultSettleTime = 2 * time.Second

// Watcher adds PDFs dropped into a directory to the knowledge base.
type Watcher struct {
	library driven.LocalLibrary
	ingest  driving.IngestService
	settle  time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSettleTime overrides DefaultSettleTime.
func WithSettleTime(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// NewWatcher creates a watcher that feeds new PDFs to ingest.AddFile.
func NewWatcher(library driven.LocalLibrary, ingest driving.IngestService, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		library: library,
		ingest:  ingest,
		settle:  DefaultSettleTime,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches dir until ctx is cancelled. Files are ingested one at a
// time once they have settled; a failing file is logged and skipped.
// Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	events, err := w.library.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Debug("watch: started on %s (settle %s)", dir, w.settle)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("watch: event for %s", path)
			pending[path] = time.Now().Add(w.settle)

		case now := <-ticker.C:
			for _, path := range due(pending, now) {
				delete(pending, path)
				w.add(ctx, path)
			}
		}
	}
}

func (w *Watcher) add(ctx context.Context, path string) {
	n, err := w.ingest.AddFile(ctx, path)
	switch {
	case err == nil:
		logger.Info("Indexed %s (%d chunks)", filepath.Base(path), n)
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("watch: %s disappeared before indexing", path)
	default:
		logger.Warn("failed to index %s: %v", filepath.Base(path), err)
	}
}

// due returns the pending paths whose settle deadline has passed, sorted
// so processing order is deterministic.
func due(pending map[string]time.Time, now time.Time) []string {
	var ready []string
	for path, deadline := range pending {
		if !now.Before(deadline) {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}
