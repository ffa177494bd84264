package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/knowledge"
)

// mockEmbeddingService embeds text as a bag of hashed lowercase words, so
// texts sharing words are similar.
type mockEmbeddingService struct {
	mu      sync.Mutex
	dim     int
	err     error
	drop    int  // vectors removed from the end of each batch
	block   bool // wait for the context instead of answering
	batches [][]string
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{dim: 64}
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}

	vecs := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vecs = append(vecs, m.vector(t))
	}
	if m.drop > 0 && m.drop <= len(vecs) {
		vecs = vecs[:len(vecs)-m.drop]
	}
	return vecs, nil
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	vec := make([]float32, m.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w)) //nolint:errcheck // hash writes never fail
		vec[h.Sum32()%uint32(m.dim)]++
	}
	return vec
}

func (m *mockEmbeddingService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dim }
func (m *mockEmbeddingService) ModelName() string            { return "mock" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// stubExtractor returns fixed text or an error for its types.
type stubExtractor struct {
	types []string
	text  string
	err   error
}

func (s *stubExtractor) Name() string             { return "stub" }
func (s *stubExtractor) SupportedTypes() []string { return s.types }
func (s *stubExtractor) Extract(_ context.Context, _ *domain.RawContent) (string, error) {
	return s.text, s.err
}

// testEngine wires a KnowledgeService over real adapters and a mock embedder.
type testEngine struct {
	service  *KnowledgeService
	store    *memory.KnowledgeStore
	registry *extractors.Registry
	embedder *mockEmbeddingService
}

func newTestEngine(opts ...ServiceOption) *testEngine {
	e := &testEngine{
		store:    memory.NewKnowledgeStore(),
		registry: extractors.NewDefaultRegistry(),
		embedder: newMockEmbedder(),
	}
	e.service = NewKnowledgeService(e.registry, chunker.New(), knowledge.New(), e.store, e.embedder, opts...)
	return e
}

// addText ingests text as a plain-text document with the given source.
func (e *testEngine) addText(ctx context.Context, source, text string) (string, error) {
	return e.service.AddDocument(ctx, domain.AddDocumentRequest{
		Content:      domain.RawContent{Data: []byte(text), Name: source},
		Source:       source,
		DeclaredType: "text",
	})
}

// entityByName finds a stored entity by name.
func (e *testEngine) entityByName(ctx context.Context, name string) (*domain.Entity, bool) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, false
	}
	for _, ent := range snap.Entities {
		if ent.Name == name {
			return ent, true
		}
	}
	return nil, false
}
