package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyRetrievalMode     = "retrieval.mode"
	keyRetrievalTopK     = "retrieval.top_k"
	keyRetrievalChunkTop = "retrieval.chunk_top_k"
	keyRetrievalRerank   = "retrieval.rerank"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedTimeout      = "embedding.timeout_seconds"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyEmbedBurst        = "embedding.burst"
)

// OpenAIKeyEnv is read when no OpenAI API key is configured.
//
//nolint:gosec // G101: environment variable name, not a credential.
const OpenAIKeyEnv = "OPENAI_API_KEY"

// SettingsService manages engine settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current engine settings.
func (s *SettingsService) Get() (*domain.EngineSettings, error) {
	defaults := domain.DefaultEngineSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	apiKey := s.configStore.GetString(keyEmbedAPIKey)
	if apiKey == "" && provider == domain.AIProviderOpenAI {
		apiKey = os.Getenv(OpenAIKeyEnv)
	}

	timeout := defaults.Embedding.Timeout
	if secs := s.configStore.GetInt(keyEmbedTimeout); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	settings := &domain.EngineSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getNonNegativeInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			Mode:      s.getMode(defaults.Retrieval.Mode),
			TopK:      s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			ChunkTopK: s.getInt(keyRetrievalChunkTop, defaults.Retrieval.ChunkTopK),
			Rerank:    s.getBool(keyRetrievalRerank, defaults.Retrieval.Rerank),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - adapters fill it in
			APIKey:            apiKey,
			Timeout:           timeout,
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Burst:             s.configStore.GetInt(keyEmbedBurst),
		},
	}

	return settings, nil
}

// Save persists engine settings.
func (s *SettingsService) Save(settings *domain.EngineSettings) error {
	// Save chunking settings
	if err := s.configStore.Set(keyChunkSize, settings.Chunking.Size); err != nil {
		return fmt.Errorf("save chunking size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.Overlap); err != nil {
		return fmt.Errorf("save chunking overlap: %w", err)
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyRetrievalMode, settings.Retrieval.Mode.String()); err != nil {
		return fmt.Errorf("save retrieval mode: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save retrieval top_k: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalChunkTop, settings.Retrieval.ChunkTopK); err != nil {
		return fmt.Errorf("save retrieval chunk_top_k: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalRerank, settings.Retrieval.Rerank); err != nil {
		return fmt.Errorf("save retrieval rerank: %w", err)
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != os.Getenv(OpenAIKeyEnv) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedTimeout, int(settings.Embedding.Timeout/time.Second)); err != nil {
		return fmt.Errorf("save embedding timeout: %w", err)
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		if err := s.configStore.Set(keyEmbedRPS, settings.Embedding.RequestsPerSecond); err != nil {
			return fmt.Errorf("save embedding requests_per_second: %w", err)
		}
	}
	if settings.Embedding.Burst > 0 {
		if err := s.configStore.Set(keyEmbedBurst, settings.Embedding.Burst); err != nil {
			return fmt.Errorf("save embedding burst: %w", err)
		}
	}

	return nil
}

// SetMode updates the default retrieval mode.
func (s *SettingsService) SetMode(mode domain.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid retrieval mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Retrieval.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the settings can run ingestion and queries.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Retrieval.Mode.IsValid() {
		return fmt.Errorf("invalid retrieval mode: %s", settings.Retrieval.Mode)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("chunking size must be positive, got %d", settings.Chunking.Size)
	}
	if settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("chunking overlap %d must be smaller than size %d",
			settings.Chunking.Overlap, settings.Chunking.Size)
	}

	// Ingestion always embeds, so the provider is needed in every mode
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.EngineSettings {
	return domain.DefaultEngineSettings()
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

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getNonNegativeInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMode(defaultVal domain.Mode) domain.Mode {
	val := s.configStore.GetString(keyRetrievalMode)
	if val == "" {
		return defaultVal
	}
	mode, ok := domain.ParseMode(val)
	if !ok {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
