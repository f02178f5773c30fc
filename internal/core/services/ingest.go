package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService builds the knowledge base from PDFs and web articles.
type IngestService struct {
	settings domain.Settings
	store    driven.VectorStore
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	library  driven.LocalLibrary
	fetcher  driven.Fetcher
	sync     driving.Synchronizer
}

// NewIngestService creates an ingestion service.
// The fetcher and synchronizer are optional: without them AddArticle and
// Drive syncing fail, everything else works.
func NewIngestService(
	settings domain.Settings,
	store driven.VectorStore,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	library driven.LocalLibrary,
	fetcher driven.Fetcher,
	sync driving.Synchronizer,
) *IngestService {
	return &IngestService{
		settings: settings,
		store:    store,
		registry: registry,
		pipeline: pipeline,
		library:  library,
		fetcher:  fetcher,
		sync:     sync,
	}
}

// Rebuild deletes the collection and re-indexes every local PDF.
// A document that cannot be extracted is recorded in the report and
// skipped; a failure to write to the index aborts the run.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IngestService) Rebuild(ctx context.Context, opts driving.RebuildOptions) (*domain.IngestReport, error) {
	report := &domain.IngestReport{
		RunID:      uuid.NewString(),
		Collection: s.settings.KnowledgeBase.Collection,
	}
	logger.Debug("rebuild run %s", report.RunID)

	driveDir := opts.DriveDir
	if driveDir == "" {
		driveDir = s.settings.Drive.SyncDir
	}

	// 1. Optional Drive sync
	if opts.SyncDrive {
		folderID := opts.FolderID
		if folderID == "" {
			folderID = s.settings.Drive.FolderID
		}
		if err := s.syncDrive(ctx, folderID, driveDir, opts.Force); err != nil {
			return report, err
		}
	}

	// 2. Collect PDFs
	booksDir := s.settings.BooksDir
	if _, err := os.Stat(booksDir); errors.Is(err, os.ErrNotExist) {
		logger.Info("Creating books directory: %s", booksDir)
		if err := os.MkdirAll(booksDir, 0o755); err != nil {
			return report, fmt.Errorf("create books directory: %w", err)
		}
		logger.Info("Please add PDF files to the books folder and run again.")
		return report, fmt.Errorf("%w: %s was empty", domain.ErrNoDocuments, booksDir)
	}

	pdfs, err := s.library.ListPDFs(ctx, booksDir, driveDir)
	if err != nil {
		return report, fmt.Errorf("list pdfs: %w", err)
	}
	if len(pdfs) == 0 {
		logger.Info("No PDF files found in %s", booksDir)
		return report, fmt.Errorf("%w: in %s", domain.ErrNoDocuments, booksDir)
	}

	logger.Info("Found %d PDF file(s):", len(pdfs))
	for _, p := range pdfs {
		logger.Info("  - %s (%.1f KB)", filepath.Base(p), fileSizeKB(p))
	}

	// 3. Fresh collection
	name := s.settings.KnowledgeBase.Collection
	if err := s.store.DeleteCollection(ctx, name); err != nil {
		return report, fmt.Errorf("delete collection %s: %w", name, err)
	}
	logger.Debug("deleted collection %s (if present)", name)

	coll, err := s.store.CreateCollection(ctx, name, s.collectionMetadata())
	if err != nil {
		return report, fmt.Errorf("create collection %s: %w", name, err)
	}

	// 4. Index each book
	for _, path := range pdfs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger.Info("\nProcessing: %s", filepath.Base(path))
		outcome, err := s.indexBook(ctx, coll, path)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			return report, err
		}
		if outcome.Err != nil {
			logger.Warn("skipping %s: %v", filepath.Base(path), outcome.Err)
		}
	}

	return report, nil
}

// AddArticle fetches url, extracts the article and appends its chunks to
// the collection, creating the collection if needed.
func (s *IngestService) AddArticle(ctx context.Context, url string) (int, error) {
	if strings.TrimSpace(url) == "" {
		return 0, fmt.Errorf("%w: article url is required", domain.ErrInvalidInput)
	}
	if s.fetcher == nil {
		return 0, fmt.Errorf("%w: no fetcher configured", domain.ErrFetch)
	}

	resp, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}

	raw := &domain.RawDocument{
		URI:      url,
		MIMEType: domain.MIMETypeHTML,
		Content:  resp.Body,
		Metadata: map[string]any{"final_url": resp.URL},
	}
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return 0, err
	}
	doc := result.Document

	logger.Info("  Title: %s...", truncateRunes(doc.Title, 60))
	logger.Info("  Extracted %d characters", utf8.RuneCountInString(doc.Content))

	coll, err := s.openOrCreate(ctx)
	if err != nil {
		return 0, err
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("chunk article: %w", err)
	}
	logger.Info("  Created %d chunks", len(chunks))

	if err := s.addChunks(ctx, coll, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// AddFile appends one local PDF to the collection as a book.
func (s *IngestService) AddFile(ctx context.Context, path string) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, fmt.Errorf("%w: %s is not a PDF", domain.ErrInvalidInput, path)
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	coll, err := s.openOrCreate(ctx)
	if err != nil {
		return 0, err
	}

	logger.Info("\nProcessing: %s", filepath.Base(path))
	outcome, err := s.indexBook(ctx, coll, path)
	if err != nil {
		return 0, err
	}
	if outcome.Err != nil {
		return 0, outcome.Err
	}
	return outcome.Chunks, nil
}

// syncDrive runs the synchronizer, reporting every failure as ErrSync.
func (s *IngestService) syncDrive(ctx context.Context, folderID, destDir string, force bool) error {
	if folderID == "" {
		return fmt.Errorf("%w: Drive sync requested but no folder ID provided "+
			"(use --drive-folder-id or set DRIVE_FOLDER_ID)", domain.ErrSync)
	}
	if s.sync == nil {
		return fmt.Errorf("%w: Drive is not configured", domain.ErrSync)
	}
	if _, err := s.sync.Sync(ctx, folderID, destDir, force); err != nil {
		if errors.Is(err, domain.ErrSync) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrSync, err)
	}
	return nil
}

// indexBook extracts, chunks and stores one PDF. Extraction and chunking
// failures are returned in the outcome; index failures as the error.
func (s *IngestService) indexBook(ctx context.Context, coll driven.Collection, path string) (domain.DocumentOutcome, error) {
	outcome := domain.DocumentOutcome{Path: path}

	logger.Info("  Extracting text from: %s", filepath.Base(path))
	result, err := s.registry.Normalise(ctx, &domain.RawDocument{URI: path, MIMEType: domain.MIMETypePDF})
	if err != nil {
		outcome.SourceName = domain.BookSourceName(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		outcome.Err = err
		return outcome, nil
	}

	doc := result.Document
	doc.Content = collapseWhitespace(doc.Content)
	outcome.SourceName = doc.SourceName

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		outcome.Err = fmt.Errorf("chunk: %w", err)
		return outcome, nil
	}
	logger.Info("  Created %d chunks", len(chunks))

	if err := s.addChunks(ctx, coll, chunks); err != nil {
		return outcome, err
	}
	outcome.Chunks = len(chunks)
	return outcome, nil
}

// addChunks writes chunks in order, in batches of the configured size.
// The first failing batch aborts the rest.
func (s *IngestService) addChunks(ctx context.Context, coll driven.Collection, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	size := s.settings.KnowledgeBase.BatchSize
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	batches := (len(chunks)-1)/size + 1

	for i := 0; i < len(chunks); i += size {
		end := min(i+size, len(chunks))
		batch := chunks[i:end]

		ids := make([]string, len(batch))
		docs := make([]string, len(batch))
		metas := make([]map[string]any, len(batch))
		for j, c := range batch {
			ids[j] = c.ID
			docs[j] = c.Content
			metas[j] = c.IndexMetadata()
		}

		n := i/size + 1
		if err := coll.Add(ctx, ids, docs, metas); err != nil {
			return fmt.Errorf("add batch %d/%d to %s: %w", n, batches, coll.Name(), err)
		}
		logger.Info("    Added batch %d/%d", n, batches)
	}
	return nil
}

// openOrCreate returns the configured collection, creating it if absent.
func (s *IngestService) openOrCreate(ctx context.Context) (driven.Collection, error) {
	name := s.settings.KnowledgeBase.Collection

	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", name, err)
	}

	if exists {
		coll, err := s.store.GetCollection(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("open collection %s: %w", name, err)
		}
		logger.Info("Using existing collection: %s", name)
		return coll, nil
	}

	coll, err := s.store.CreateCollection(ctx, name, s.collectionMetadata())
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	logger.Info("Created new collection: %s", name)
	return coll, nil
}

func (s *IngestService) collectionMetadata() map[string]any {
	return map[string]any{"description": s.settings.KnowledgeBase.Description}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func fileSizeKB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024
}
