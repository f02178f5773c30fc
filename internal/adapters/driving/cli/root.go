// Package cli provides the engineroom command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configDir string
	verbose   bool
)

// folderWatcher runs until its context ends, ingesting PDFs dropped into dir.
type folderWatcher interface {
	Run(ctx context.Context, dir string) error
}

// Services used by commands. Populated lazily by wire, or directly by tests.
var (
	appSettings      *domain.Settings
	settingsService  driving.SettingsService
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	synchronizer     driving.Synchronizer
	watcher          folderWatcher
)

var rootCmd = &cobra.Command{
	Use:   "engineroom",
	Short: "Build and query a historical sources knowledge base",
	Long: `engineroom ingests PDF books, Google Drive folders and web articles into a
local vector index, and serves cited evidence to AI agents over MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.engineroom)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeServices(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// requireSettings returns the resolved settings, loading them on first use.
func requireSettings() (*domain.Settings, error) {
	if appSettings != nil {
		return appSettings, nil
	}
	if err := wireSettings(); err != nil {
		return nil, err
	}
	if appSettings == nil {
		return nil, errors.New("settings not configured")
	}
	return appSettings, nil
}

// requireServices wires the ingestion and retrieval stack on first use.
func requireServices(ctx context.Context) error {
	if ingestService != nil && retrievalService != nil {
		return nil
	}
	settings, err := requireSettings()
	if err != nil {
		return err
	}
	return wireServices(ctx, settings)
}
