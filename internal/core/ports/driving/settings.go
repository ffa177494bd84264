package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages engine settings.
type SettingsService interface {
	// Get retrieves current engine settings.
	Get() (*domain.EngineSettings, error)

	// Save persists engine settings.
	Save(settings *domain.EngineSettings) error

	// SetMode updates the default retrieval mode.
	SetMode(mode domain.Mode) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the settings can run ingestion and queries.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.EngineSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
