package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range settingsCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["show"])
	assert.True(t, names["wizard"])
	assert.True(t, names["mode"])
	assert.True(t, names["embedding"])
}

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, output, "[Retrieval]")
	assert.Contains(t, output, "Mode: Mix (blended local + global + naive)")
	assert.Contains(t, output, "Top K: 10")
	assert.Contains(t, output, "Chunk Top K: 5")
	assert.Contains(t, output, "[Chunking]")
	assert.Contains(t, output, "Size: 512")
	assert.Contains(t, output, "Provider: Ollama (local)")
	assert.Contains(t, output, "Configuration is valid.")
}

func TestSettingsShow_MasksAPIKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, settingsService.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-1234567890abcdef"))

	output, err := executeCommand("settings")

	require.NoError(t, err)
	assert.Contains(t, output, "API Key: sk-1...cdef")
	assert.NotContains(t, output, "sk-1234567890abcdef")
}

func TestSettingsMode_WithArgument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("settings", "mode", "NAIVE")

	require.NoError(t, err)
	assert.Contains(t, output, "Retrieval mode set to: Naive (keyword containment)")
	assert.NotContains(t, output, "requires an embedding provider")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNaive, settings.Retrieval.Mode)
}

func TestSettingsMode_UnknownArgument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("settings", "mode", "telepathy")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown retrieval mode")
}

func TestSettingsMode_Interactive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("6\n"))
	output, err := executeCommand("settings", "mode")

	require.NoError(t, err)
	assert.Contains(t, output, "Select Retrieval Mode")
	assert.Contains(t, output, "Retrieval mode set to: Bypass (raw query + latest chunks)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeBypass, settings.Retrieval.Mode)
}

func TestSettingsMode_InvalidSelection(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("9\n"))
	_, err := executeCommand("settings", "mode")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selection")
}

func TestSettingsEmbedding_Ollama(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\nall-minilm\n"))
	output, err := executeCommand("settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, output, "Validating configuration... OK")
	assert.Contains(t, output, "Embedding provider configured: Ollama (local) (all-minilm)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
}

func TestSettingsEmbedding_OpenAIRequiresKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("2\n\n\n"))
	_, err := executeCommand("settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsEmbedding_OpenAIKeyFromInput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("2\ntext-embedding-3-large\nsk-test-key-123456\n"))
	_, err := executeCommand("settings", "embedding")

	require.NoError(t, err)
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test-key-123456", settings.Embedding.APIKey)
}

func TestSettingsWizard(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\n1\n\n"))
	output, err := executeCommand("settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, output, "Setup Wizard")
	assert.Contains(t, output, "Retrieval mode set to: Local")
	assert.Contains(t, output, "Embedding provider configured: Ollama (local) (nomic-embed-text)")
}

func TestReadPassword_FallsBackToLine(t *testing.T) {
	in := strings.NewReader("secret\n")

	got := readPassword(in, bufio.NewReader(in))

	assert.Equal(t, "secret", got)
}
