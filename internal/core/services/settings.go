package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyBooksDir          = "books_dir"
	KeyDataDir           = "data_dir"
	KeyChunkSize         = "chunk.size"
	KeyChunkOverlap      = "chunk.overlap"
	KeyCollection        = "knowledge_base.collection"
	KeyDescription       = "knowledge_base.description"
	KeyBatchSize         = "knowledge_base.batch_size"
	KeyFetchTimeout      = "article.fetch_timeout_seconds"
	KeyUserAgent         = "article.user_agent"
	KeyMinArticleChars   = "article.min_chars"
	KeyDriveFolderID     = "drive.folder_id"
	KeyDriveSyncDir      = "drive.sync_dir"
	KeyDriveTokenPath    = "drive.token_path"
	KeyDriveCredentials  = "drive.credentials_path"
	KeyDrivePageSize     = "drive.page_size"
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	baseDir     string
}

// NewSettingsService creates a new settings service. Relative defaults
// (books, knowledge_db, token file) are rooted at baseDir.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, baseDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		baseDir:     baseDir,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings(s.baseDir)

	settings.BooksDir = s.getPath(KeyBooksDir, settings.BooksDir)
	settings.DataDir = s.getPath(KeyDataDir, settings.DataDir)

	settings.Chunk = domain.ChunkSettings{
		Size:    s.getInt(KeyChunkSize, settings.Chunk.Size),
		Overlap: s.getInt(KeyChunkOverlap, settings.Chunk.Overlap),
	}

	settings.KnowledgeBase = domain.KnowledgeBaseSettings{
		Collection:  s.getString(KeyCollection, settings.KnowledgeBase.Collection),
		Description: s.getString(KeyDescription, settings.KnowledgeBase.Description),
		BatchSize:   s.getInt(KeyBatchSize, settings.KnowledgeBase.BatchSize),
	}

	if secs := s.configStore.GetInt(KeyFetchTimeout); secs > 0 {
		settings.Article.FetchTimeout = time.Duration(secs) * time.Second
	}
	settings.Article.UserAgent = s.getString(KeyUserAgent, settings.Article.UserAgent)
	settings.Article.MinChars = s.getInt(KeyMinArticleChars, settings.Article.MinChars)

	// The Drive cache follows the books directory unless set explicitly.
	settings.Drive = domain.DriveSettings{
		FolderID:        s.configStore.GetString(KeyDriveFolderID),
		SyncDir:         s.getPath(KeyDriveSyncDir, filepath.Join(settings.BooksDir, domain.DefaultDriveSyncDirName)),
		TokenPath:       s.getPath(KeyDriveTokenPath, settings.Drive.TokenPath),
		CredentialsPath: s.getPath(KeyDriveCredentials, settings.Drive.CredentialsPath),
		PageSize:        int64(s.getInt(KeyDrivePageSize, int(settings.Drive.PageSize))),
	}

	provider := s.getProvider(KeyEmbedProvider, settings.Embedding.Provider)
	settings.Embedding = domain.EmbeddingSettings{
		Provider: provider,
		Model:    s.getString(KeyEmbedModel, domain.DefaultEmbeddingModels()[provider]),
		BaseURL:  s.configStore.GetString(KeyEmbedBaseURL), // No default - adapters know their own endpoint
		APIKey:   s.configStore.GetString(KeyEmbedAPIKey),
	}

	return &settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings(s.baseDir)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrUnsupportedType, provider)
	}

	// An API key may already come from the environment.
	if provider.RequiresAPIKey() && apiKey == "" && s.configStore.GetString(KeyEmbedAPIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	baseURL := ""
	if provider == domain.AIProviderOllama {
		baseURL = s.getString(KeyEmbedBaseURL, defaultOllamaBaseURL)
	}

	if err := s.configStore.Set(KeyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(KeyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(KeyEmbedBaseURL, baseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if apiKey != "" {
		if err := s.configStore.Set(KeyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	return nil
}

// SetDriveFolder stores the default Drive folder id.
func (s *SettingsService) SetDriveFolder(folderID string) error {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return fmt.Errorf("%w: folder id is empty", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(KeyDriveFolderID, folderID); err != nil {
		return fmt.Errorf("save drive folder: %w", err)
	}
	return nil
}

// SetBooksDir stores the primary PDF directory as an absolute path.
func (s *SettingsService) SetBooksDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: books directory is empty", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := s.configStore.Set(KeyBooksDir, abs); err != nil {
		return fmt.Errorf("save books dir: %w", err)
	}
	return nil
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPath(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return expandHome(val)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(strings.ToLower(val))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
