package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// Defaults for the knowledge base.
const (
	DefaultCollectionName        = "historical_sources"
	DefaultCollectionDescription = "Historical sources for counter-extremism education"
	DefaultChunkSize             = 1000
	DefaultChunkOverlap          = 200
	DefaultBatchSize             = 100
	DefaultMinArticleChars       = 100
	DefaultMinSelectionChars     = 500
	DefaultFetchTimeout          = 30 * time.Second
	DefaultTestQueryResults      = 3
	DefaultAgentQueryResults     = 5
	DefaultDriveSyncDirName      = "_drive"
	DefaultDrivePageSize         = 200
	DefaultUserAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is the offline feature-hashing embedder. Retrieval
	// quality is lexical only; useful without a model server.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing:
		return true
	default:
		return false
	}
}

// AllEmbeddingProviders lists the providers in menu order.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderHashing}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderHashing:
		return "Hashing (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// DefaultEmbeddingModels returns default models for each embedding provider.
// all-minilm matches the MiniLM-L6 model the knowledge base was first built with.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "hashing-256",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Offline
		"hashing-256": 256,
	}
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	// Size is the maximum characters per chunk.
	Size int

	// Overlap is the number of characters shared by neighbouring chunks.
	Overlap int
}

// KnowledgeBaseSettings describes the target collection and ingestion limits.
type KnowledgeBaseSettings struct {
	// Collection is the vector index collection name.
	Collection string

	// Description is stored as collection metadata on creation.
	Description string

	// BatchSize bounds the number of chunks per index add call.
	BatchSize int
}

// ArticleSettings configures web article fetching and extraction.
type ArticleSettings struct {
	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration

	// UserAgent is sent with every fetch.
	UserAgent string

	// MinChars is the minimum extracted length worth indexing.
	MinChars int

	// MinSelectionChars is the length below which the extractor falls
	// through to the next content selection strategy.
	MinSelectionChars int
}

// DriveSettings configures Google Drive synchronisation.
type DriveSettings struct {
	// FolderID is the Drive folder holding the PDFs.
	FolderID string

	// SyncDir is where Drive PDFs are cached locally.
	SyncDir string

	// TokenPath is the authorised-user OAuth token file.
	TokenPath string

	// CredentialsPath is the OAuth client file used to create the token.
	CredentialsPath string

	// PageSize is the listing page size.
	PageSize int64
}

// Settings holds all runtime configuration. It is built once at startup
// and passed explicitly to constructors.
type Settings struct {
	// BooksDir is the primary local PDF directory.
	BooksDir string

	// DataDir holds the vector index database.
	DataDir string

	// Chunk configures chunking.
	Chunk ChunkSettings

	// KnowledgeBase configures the target collection.
	KnowledgeBase KnowledgeBaseSettings

	// Article configures web article ingestion.
	Article ArticleSettings

	// Drive configures Drive synchronisation.
	Drive DriveSettings

	// Embedding configures the collection's embedding function.
	Embedding EmbeddingSettings
}

// DefaultSettings returns settings rooted at baseDir.
func DefaultSettings(baseDir string) Settings {
	booksDir := filepath.Join(baseDir, "books")
	return Settings{
		BooksDir: booksDir,
		DataDir:  filepath.Join(baseDir, "knowledge_db"),
		Chunk: ChunkSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		KnowledgeBase: KnowledgeBaseSettings{
			Collection:  DefaultCollectionName,
			Description: DefaultCollectionDescription,
			BatchSize:   DefaultBatchSize,
		},
		Article: ArticleSettings{
			FetchTimeout:      DefaultFetchTimeout,
			UserAgent:         DefaultUserAgent,
			MinChars:          DefaultMinArticleChars,
			MinSelectionChars: DefaultMinSelectionChars,
		},
		Drive: DriveSettings{
			SyncDir:         filepath.Join(booksDir, DefaultDriveSyncDirName),
			TokenPath:       filepath.Join(baseDir, "token_drive.json"),
			CredentialsPath: filepath.Join(baseDir, "credentials.json"),
			PageSize:        DefaultDrivePageSize,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
	}
}

// Validate checks the settings are usable for ingestion and retrieval.
func (s Settings) Validate() error {
	switch {
	case s.BooksDir == "":
		return fmt.Errorf("%w: books directory is required", ErrInvalidInput)
	case s.DataDir == "":
		return fmt.Errorf("%w: data directory is required", ErrInvalidInput)
	case s.Chunk.Size <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, s.Chunk.Size)
	case s.Chunk.Overlap < 0 || s.Chunk.Overlap >= s.Chunk.Size:
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ErrInvalidInput, s.Chunk.Size, s.Chunk.Overlap)
	case s.KnowledgeBase.Collection == "":
		return fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	case s.KnowledgeBase.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidInput, s.KnowledgeBase.BatchSize)
	case !s.Embedding.Provider.IsValid():
		return fmt.Errorf("%w: unknown embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	case !s.Embedding.IsConfigured():
		return fmt.Errorf("%w: %s requires an API key", ErrEmbeddingUnavailable, s.Embedding.Provider.Description())
	}
	return nil
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfig derives the chunking pipeline from the chunk settings.
func (s Settings) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": s.Chunk.Size,
				"overlap":    s.Chunk.Overlap,
			},
		},
	}
}
