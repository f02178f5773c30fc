package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/ai"
	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/config/file"
	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/memory"
	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/sqlite"
	"github.com/LeonardSibelius/engineroom-ai/internal/connectors/filesystem"
	"github.com/LeonardSibelius/engineroom-ai/internal/connectors/google"
	gdrive "github.com/LeonardSibelius/engineroom-ai/internal/connectors/google/drive"
	"github.com/LeonardSibelius/engineroom-ai/internal/connectors/web"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/services"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
	"github.com/LeonardSibelius/engineroom-ai/internal/normalisers"
	"github.com/LeonardSibelius/engineroom-ai/internal/postprocessors"
)

// Flag overrides applied on top of resolved settings.
var (
	booksDirOverride string
	dryRun           bool
)

// closers release wired resources in reverse order.
var closers []func() error

// wireSettings builds the settings service and resolves settings:
// defaults, then config.toml, then .env and the process environment,
// then flag overrides.
func wireSettings() error {
	if settingsService == nil {
		dir := configDir
		if dir == "" {
			d, err := file.DefaultConfigDir()
			if err != nil {
				return err
			}
			dir = d
		}

		if err := file.LoadDotEnv(); err != nil {
			return err
		}

		store, err := file.NewConfigStore(dir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}

		baseDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}

		overlay := file.NewEnvOverlay(store, file.DefaultEnvBindings())
		settingsService = services.NewSettingsService(overlay, ai.NewConfigValidator(), baseDir)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyOverrides(settings)
	appSettings = settings
	return nil
}

// applyOverrides applies command line flags. A Drive cache still at its
// default location follows an overridden books directory.
func applyOverrides(s *domain.Settings) {
	if booksDirOverride == "" {
		return
	}
	dir, err := filepath.Abs(booksDirOverride)
	if err != nil {
		dir = booksDirOverride
	}
	if s.Drive.SyncDir == filepath.Join(s.BooksDir, domain.DefaultDriveSyncDirName) {
		s.Drive.SyncDir = filepath.Join(dir, domain.DefaultDriveSyncDirName)
	}
	s.BooksDir = dir
}

// wireServices constructs the ingestion stack from settings.
func wireServices(ctx context.Context, settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	store, err := openVectorStore(settings.DataDir, embedder)
	if err != nil {
		return err
	}
	closers = append(closers, store.Close)

	ppRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(ppRegistry)
	pipeline, err := ppRegistry.BuildPipeline(settings.PipelineConfig())
	if err != nil {
		return fmt.Errorf("building chunk pipeline: %w", err)
	}

	library := filesystem.New()
	fetcher := web.New(
		web.WithTimeout(settings.Article.FetchTimeout),
		web.WithUserAgent(settings.Article.UserAgent),
	)

	synchronizer = services.NewSynchronizer(newRemoteStore(ctx, settings.Drive))
	ingest := services.NewIngestService(
		*settings,
		store,
		normalisers.NewDefaultRegistry(settings.Article),
		pipeline,
		library,
		fetcher,
		synchronizer,
	)
	ingestService = ingest
	retrievalService = services.NewRetrievalService(store, settings.KnowledgeBase.Collection)
	watcher = services.NewWatcher(library, ingest)
	return nil
}

// openVectorStore opens the persistent index, or an in-memory one for dry runs.
func openVectorStore(dataDir string, embedder driven.EmbeddingService) (driven.VectorStore, error) {
	if dryRun {
		logger.Info("Dry run: the knowledge base in %s is not modified.", dataDir)
		return memory.NewVectorStore(embedder), nil
	}

	store, err := sqlite.NewStore(dataDir, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}
	logger.Debug("knowledge base at %s", store.Path())
	return store, nil
}

// newRemoteStore opens the Drive client. Without a usable token it returns
// nil, and Drive sync then fails with a pointer to `engineroom drive auth`.
func newRemoteStore(ctx context.Context, s domain.DriveSettings) driven.RemoteFileStore {
	ts, err := google.NewFileTokenSource(ctx, s.TokenPath)
	if err != nil {
		if errors.Is(err, google.ErrNoToken) {
			logger.Debug("drive disabled: %v (run 'engineroom drive auth')", err)
		} else {
			logger.Warn("drive disabled: %v", err)
		}
		return nil
	}

	svc, err := google.NewDriveService(ctx, ts)
	if err != nil {
		logger.Warn("drive disabled: %v", err)
		return nil
	}
	return gdrive.NewClient(svc, gdrive.ConfigFromSettings(s), nil)
}

// closeServices releases wired resources. Safe to call more than once.
func closeServices() error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	closers = nil
	return errors.Join(errs...)
}
