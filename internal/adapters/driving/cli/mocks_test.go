package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.Settings
	getErr      error
	validateErr error
	pingErr     error
	setErr      error

	provider    domain.AIProvider
	model       string
	apiKey      string
	driveFolder string
	booksDir    string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings("/defaults")
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.provider, m.model, m.apiKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) SetDriveFolder(folderID string) error {
	m.driveFolder = folderID
	return m.setErr
}

func (m *mockSettingsService) SetBooksDir(dir string) error {
	m.booksDir = dir
	return m.setErr
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.pingErr
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	report     *domain.IngestReport
	rebuildErr error
	opts       *driving.RebuildOptions

	articleChunks int
	articleErr    error
	articleURL    string

	fileChunks int
	fileErr    error
	filePath   string
}

func (m *mockIngestService) Rebuild(_ context.Context, opts driving.RebuildOptions) (*domain.IngestReport, error) {
	m.opts = &opts
	if m.report == nil {
		m.report = &domain.IngestReport{Collection: domain.DefaultCollectionName}
	}
	return m.report, m.rebuildErr
}

func (m *mockIngestService) AddArticle(_ context.Context, url string) (int, error) {
	m.articleURL = url
	return m.articleChunks, m.articleErr
}

func (m *mockIngestService) AddFile(_ context.Context, path string) (int, error) {
	m.filePath = path
	return m.fileChunks, m.fileErr
}

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	evidence []domain.Evidence
	err      error
	query    string
	k        int
}

func (m *mockRetrievalService) Search(_ context.Context, query string, k int) ([]domain.Evidence, error) {
	m.query, m.k = query, k
	return m.evidence, m.err
}

// mockSynchronizer implements driving.Synchronizer for testing.
type mockSynchronizer struct {
	paths    []string
	err      error
	folderID string
	destDir  string
	force    bool
}

func (m *mockSynchronizer) Sync(_ context.Context, folderID, destDir string, force bool) ([]string, error) {
	m.folderID, m.destDir, m.force = folderID, destDir, force
	return m.paths, m.err
}

// mockWatcher implements folderWatcher for testing.
type mockWatcher struct {
	mu  sync.Mutex
	dir string
	err error
}

func (m *mockWatcher) Run(_ context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = dir
	return m.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings  *mockSettingsService
	ingest    *mockIngestService
	retrieval *mockRetrievalService
	sync      *mockSynchronizer
	watcher   *mockWatcher
}

// setupTestServices installs mocks in place of the wired services and
// returns a cleanup function restoring the previous state.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	settings := domain.DefaultSettings(t.TempDir())
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderHashing,
		Model:    "hashing-256",
	}

	ts := &testServices{
		settings:  &mockSettingsService{settings: settings},
		ingest:    &mockIngestService{},
		retrieval: &mockRetrievalService{},
		sync:      &mockSynchronizer{},
		watcher:   &mockWatcher{},
	}

	prevSettings, prevSvc := appSettings, settingsService
	prevIngest, prevRetrieval := ingestService, retrievalService
	prevSync, prevWatcher := synchronizer, watcher

	appSettings = &settings
	settingsService = ts.settings
	ingestService = ts.ingest
	retrievalService = ts.retrieval
	synchronizer = ts.sync
	watcher = ts.watcher

	t.Cleanup(func() {
		appSettings, settingsService = prevSettings, prevSvc
		ingestService, retrievalService = prevIngest, prevRetrieval
		synchronizer, watcher = prevSync, prevWatcher
		resetFlags(rootCmd)
	})
	return ts
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// executeWithInput is executeCommand with stdin content.
func executeWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
