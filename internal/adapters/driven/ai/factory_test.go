package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ollamaServer answers the Ollama tags endpoint with the given status.
func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantErr     bool
		errContains string
	}{
		{
			name:        "nil settings",
			settings:    nil,
			wantErr:     true,
			errContains: "embedding service unavailable",
		},
		{
			name:        "unconfigured settings",
			settings:    &domain.EmbeddingSettings{},
			wantErr:     true,
			errContains: "embedding service unavailable",
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantErr:     true,
			errContains: "embedding service unavailable",
		},
		{
			name: "unknown provider is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantErr:     true,
			errContains: "embedding service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			svc.Close()
		})
	}
}

func TestCreateEmbeddingService_KnownDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})

	require.NoError(t, err)
	assert.IsType(t, &ollamaembed.EmbeddingService{}, svc)
	assert.Equal(t, 1024, svc.Dimensions())
}

func TestCreateEmbeddingService_UnknownOllamaModel(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "custom-model",
	})

	require.NoError(t, err)
	assert.Equal(t, ollamaembed.DefaultDimensions, svc.Dimensions())
}

func TestCreateEmbeddingService_OpenAI(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "sk-test",
		Model:    "text-embedding-3-large",
	})

	require.NoError(t, err)
	assert.IsType(t, &openaiembed.EmbeddingService{}, svc)
	assert.Equal(t, 3072, svc.Dimensions())
}

func TestCreateEmbeddingService_RateLimited(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		Model:             "nomic-embed-text",
		RequestsPerSecond: 2,
		Burst:             1,
	})

	require.NoError(t, err)
	assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestValidateEmbeddingConfig(t *testing.T) {
	t.Run("nil settings", func(t *testing.T) {
		assert.NoError(t, ValidateEmbeddingConfig(nil))
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{}))
	})

	t.Run("reachable ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)

		err := ValidateEmbeddingConfig(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
			Model:    "nomic-embed-text",
		})

		assert.NoError(t, err)
	})

	t.Run("failing ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusInternalServerError)

		err := ValidateEmbeddingConfig(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
			Model:    "nomic-embed-text",
		})

		assert.Error(t, err)
	})
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{})

		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("reachable service", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
			Model:    "nomic-embed-text",
		})

		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})

	t.Run("unreachable service", func(t *testing.T) {
		server := ollamaServer(t, http.StatusServiceUnavailable)

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
			Model:    "nomic-embed-text",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "service unreachable")
		assert.Contains(t, err.Error(), "sercha-rag settings embedding")
		assert.Nil(t, svc)
	})
}
