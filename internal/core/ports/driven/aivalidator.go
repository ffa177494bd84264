package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// AIConfigValidator validates AI provider configurations by connecting to them.
type AIConfigValidator interface {
	// ValidateEmbedding creates an embedding service from the settings and pings it.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
