package driving

import "github.com/LeonardSibelius/engineroom-ai/internal/core/domain"

// SettingsService resolves and updates runtime configuration.
type SettingsService interface {
	// Get resolves settings: defaults, then the config file, then the
	// environment.
	Get() (*domain.Settings, error)

	// GetDefaults returns the built-in settings.
	GetDefaults() domain.Settings

	// SetEmbeddingProvider configures the embedding provider. An empty
	// model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetDriveFolder stores the default Drive folder id.
	SetDriveFolder(folderID string) error

	// SetBooksDir stores the primary PDF directory.
	SetBooksDir(dir string) error

	// Validate checks the resolved settings.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
}
