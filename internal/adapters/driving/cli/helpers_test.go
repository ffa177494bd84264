package cli

import (
	"bytes"
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/knowledge"
)

// testEmbedder embeds text as a bag of hashed lowercase words.
type testEmbedder struct{}

func (testEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 32)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w)) //nolint:errcheck // hash writes never fail
		vec[h.Sum32()%32]++
	}
	return vec, nil
}

func (e testEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, _ := e.Embed(ctx, t) //nolint:errcheck // never fails
		vecs = append(vecs, v)
	}
	return vecs, nil
}

func (testEmbedder) Dimensions() int {
	return 32
}

func (testEmbedder) ModelName() string {
	return "test"
}

func (testEmbedder) Ping(context.Context) error {
	return nil
}

func (testEmbedder) Close() error {
	return nil
}

// setupTestServices installs an in-memory engine and settings store and
// returns a function restoring the previous services and flag values.
func setupTestServices() func() {
	origKnowledge := knowledgeService
	origSettings := settingsService

	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	knowledgeService = services.NewKnowledgeService(
		extractors.NewDefaultRegistry(),
		chunker.New(),
		knowledge.New(),
		memory.NewKnowledgeStore(),
		testEmbedder{},
	)

	return func() {
		knowledgeService = origKnowledge
		settingsService = origSettings
		resetFlags()
	}
}

// resetFlags restores flag variables that persist between executions of
// rootCmd within one test binary.
func resetFlags() {
	loadPaths = nil
	ingestType, ingestSource, ingestMeta, ingestWatch, ingestJSON = "", "", nil, false, false
	queryMode, queryTopK, queryChunkTopK, queryNoRerank, queryFilters, queryJSON = "", 0, 0, false, nil, false
	statsJSON = false
	documentsJSON = false
	exportFormat, exportOutput = exportFormatJSON, ""
	rootCmd.SetIn(nil)
}

// executeCommand runs rootCmd with args and returns its combined output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeCorpus writes a small document tree and returns its root.
func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"api.md": "# Users API\n\nGET /users/{id} returns a user.\n\nid: integer\nverbose: boolean\n",
		"notes/billing.txt": "POST /invoices creates an invoice.\ntotal: number\n" +
			"Invoices are sent to the billing contact.\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
