// Package ai provides factory functions for creating the embedding service
// that backs the vector store.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/embedding/openai"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and checks
// it is reachable. Every failure wraps domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). Check [embedding] in config.toml",
			domain.ErrEmbeddingUnavailable, settings.Provider.Description(), err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrEmbeddingUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.ConfigFromSettings(*settings)), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.ConfigFromSettings(*settings))

	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(domain.EmbeddingDimensions()[settings.Model]), nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
