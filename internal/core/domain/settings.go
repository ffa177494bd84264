package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// IsLocal returns true if the provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
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
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns the providers that can produce embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// ChunkingSettings controls the chunker.
type ChunkingSettings struct {
	// Size is the window size in characters.
	Size int

	// Overlap is the number of characters shared by adjacent windows.
	Overlap int
}

// RetrievalSettings holds query defaults.
type RetrievalSettings struct {
	Mode      Mode
	TopK      int
	ChunkTopK int
	Rerank    bool
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

	// Timeout bounds every embedding call.
	Timeout time.Duration

	// RequestsPerSecond limits calls to the provider; 0 disables limiting.
	RequestsPerSecond float64

	// Burst is the token bucket size for rate limiting.
	Burst int
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

// EngineSettings holds all engine settings.
type EngineSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
}

// DefaultEngineSettings returns settings with the documented defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		Chunking: ChunkingSettings{
			Size:    512,
			Overlap: 50,
		},
		Retrieval: RetrievalSettings{
			Mode:      DefaultMode,
			TopK:      DefaultTopK,
			ChunkTopK: DefaultChunkTopK,
			Rerank:    true,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			Timeout:  30 * time.Second,
		},
	}
}

// QueryDefaults converts retrieval settings into query options.
func (s EngineSettings) QueryDefaults() QueryOptions {
	return QueryOptions{
		Mode:      s.Retrieval.Mode,
		TopK:      s.Retrieval.TopK,
		ChunkTopK: s.Retrieval.ChunkTopK,
		Rerank:    Bool(s.Retrieval.Rerank),
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}
