package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path...]", ingestCmd.Use)
}

func TestIngestCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"type", "source", "meta", "watch", "json"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_IngestsDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)

	output, err := executeCommand("ingest", root)

	require.NoError(t, err)
	assert.Contains(t, output, "OK      "+filepath.Join(root, "api.md"))
	assert.Contains(t, output, "OK      "+filepath.Join(root, "notes", "billing.txt"))
	assert.Contains(t, output, "Documents:     2")
}

func TestIngestCmd_SingleFileWithMetadata(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)

	_, err := executeCommand("ingest", filepath.Join(root, "api.md"), "--meta", "team=identity", "--source", "wiki")
	require.NoError(t, err)

	docs, err := knowledgeService.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "wiki", docs[0].Source)
	assert.Equal(t, "identity", docs[0].Metadata["team"])
}

func TestIngestCmd_Stdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("DELETE /sessions/{id} ends a session.\n"))
	output, err := executeCommand("ingest", "-", "--type", "txt", "--source", "sessions.txt")

	require.NoError(t, err)
	assert.Contains(t, output, "OK      -")

	docs, err := knowledgeService.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "sessions.txt", docs[0].Source)
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)
	missing := filepath.Join(root, "missing.md")

	output, err := executeCommand("ingest", missing, filepath.Join(root, "api.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.md")
	assert.Contains(t, output, "FAILED  "+missing)
	assert.Contains(t, output, "Documents:     1")
}

func TestIngestCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	root := writeCorpus(t)

	output, err := executeCommand("ingest", filepath.Join(root, "api.md"), "--json")
	require.NoError(t, err)

	var results []ingestResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].DocID)
	assert.Empty(t, results[0].Error)
}

func TestIngestCmd_InvalidMeta(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ingest", ".", "--meta", "novalue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key=value pair")
}

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: nil},
		{name: "single", pairs: []string{"source=api.md"}, want: map[string]any{"source": "api.md"}},
		{name: "trims", pairs: []string{" team = identity "}, want: map[string]any{"team": "identity"}},
		{name: "value with equals", pairs: []string{"q=a=b"}, want: map[string]any{"q": "a=b"}},
		{name: "empty value", pairs: []string{"k="}, want: map[string]any{"k": ""}},
		{name: "missing equals", pairs: []string{"k"}, wantErr: true},
		{name: "missing key", pairs: []string{"=v"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyValues(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountIngested(t *testing.T) {
	results := []ingestResult{
		{Path: "a", DocID: "doc-1"},
		{Path: "b", Error: "boom"},
		{Path: "c", DocID: "doc-2"},
	}

	assert.Equal(t, 2, countIngested(results))
	assert.Equal(t, 0, countIngested(nil))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "y", plural(1, "y", "ies"))
	assert.Equal(t, "ies", plural(2, "y", "ies"))
	assert.Equal(t, "ies", plural(0, "y", "ies"))
}
