package driven

import "github.com/LeonardSibelius/engineroom-ai/internal/core/domain"

// AIConfigValidator validates embedding provider configurations.
// Implementations verify that configurations are valid by testing
// connectivity to the underlying service.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns domain.ErrEmbeddingUnavailable wrapped with the cause on failure.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
