package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestStatsCmd_Use(t *testing.T) {
	assert.Equal(t, "stats", statsCmd.Use)
}

func TestStatsCmd_EmptyStore(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, output, "Documents:     0")
	assert.Contains(t, output, "Chunks:        0")
	assert.NotContains(t, output, "Last updated")
}

func TestStatsCmd_WithLoad(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)

	output, err := executeCommand("stats", "--load", root)

	require.NoError(t, err)
	assert.Contains(t, output, "Documents:     2")
	assert.Contains(t, output, "Last updated:")
}

func TestStatsCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)

	output, err := executeCommand("stats", "-l", root, "--json")
	require.NoError(t, err)

	var stats domain.Stats
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Positive(t, stats.TotalEntities)
	assert.Positive(t, stats.TotalRelationships)
	assert.Positive(t, stats.TotalChunks)
}

func TestStatsCmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("stats", "extra")

	assert.Error(t, err)
}
