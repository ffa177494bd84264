package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestServer(t *testing.T, knowledge *mockKnowledgeService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Knowledge: knowledge})
	require.NoError(t, err)
	return server
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieval result", func(t *testing.T) {
		knowledge := &mockKnowledgeService{
			result: &domain.RetrievalResult{
				Query: "users",
				Mode:  domain.ModeLocal,
				Entities: []domain.Entity{{
					ID: "ent-1", Name: "GET /users/{id}", Type: domain.EntityTypeAPIEndpoint,
					Properties: map[string]any{domain.PropSource: "api.md"},
				}},
				Relationships: []domain.Relationship{{
					ID: "rel-1", SourceID: "ent-1", TargetID: "ent-2", Type: domain.RelationHasParameter,
				}},
				Chunks: []domain.TextChunk{{
					ID: "chk-1", Content: "GET /users/{id}", Source: "api.md", ChunkType: domain.ChunkTypeText,
				}},
				Citations: []domain.Citation{
					{Type: domain.CitationEntity, ID: "ent-1", Name: "GET /users/{id}", Source: "api.md"},
					{Type: domain.CitationChunk, ID: "chk-1", Source: "api.md", Snippet: "GET /users/{id}"},
				},
				Confidence:     0.42,
				ProcessingTime: 15 * time.Millisecond,
			},
		}
		server := newTestServer(t, knowledge)

		input := QueryInput{Query: "users", Mode: "local", TopK: 3, ChunkTopK: 2}
		_, output, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "users", knowledge.lastQuery)
		assert.Equal(t, domain.ModeLocal, knowledge.lastOpts.Mode)
		assert.Equal(t, 3, knowledge.lastOpts.TopK)
		assert.Equal(t, 2, knowledge.lastOpts.ChunkTopK)
		assert.Nil(t, knowledge.lastOpts.Rerank)

		assert.Equal(t, "local", output.Mode)
		require.Len(t, output.Entities, 1)
		assert.Equal(t, "GET /users/{id}", output.Entities[0].Name)
		require.Len(t, output.Relationships, 1)
		assert.Equal(t, "ent-2", output.Relationships[0].TargetID)
		require.Len(t, output.Chunks, 1)
		assert.Equal(t, "api.md", output.Chunks[0].Source)
		require.Len(t, output.Citations, 2)
		assert.Equal(t, "chunk", output.Citations[1].Type)
		assert.Equal(t, 0.42, output.Confidence)
		assert.Equal(t, int64(15), output.ProcessingTimeMS)
	})

	t.Run("passes rerank and filters", func(t *testing.T) {
		knowledge := &mockKnowledgeService{result: &domain.RetrievalResult{}}
		server := newTestServer(t, knowledge)

		rerank := false
		input := QueryInput{Query: "q", Rerank: &rerank, Filters: map[string]any{"source": "a.md"}}
		_, _, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		require.NotNil(t, knowledge.lastOpts.Rerank)
		assert.False(t, *knowledge.lastOpts.Rerank)
		assert.Equal(t, map[string]any{"source": "a.md"}, knowledge.lastOpts.Filters)
		assert.Equal(t, domain.Mode(""), knowledge.lastOpts.Mode)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		knowledge := &mockKnowledgeService{err: domain.ErrEmbedding}
		server := newTestServer(t, knowledge)

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Query: "q"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbedding)
	})
}

func TestServer_handleAddDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests inline content", func(t *testing.T) {
		knowledge := &mockKnowledgeService{docID: "doc-1"}
		server := newTestServer(t, knowledge)

		input := AddDocumentInput{
			Content:  "GET /users/{id}",
			Name:     "api.md",
			Source:   "wiki",
			Type:     "md",
			Metadata: map[string]any{"team": "identity"},
		}
		_, output, err := server.handleAddDocument(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.DocID)
		assert.Equal(t, []byte("GET /users/{id}"), knowledge.lastAdd.Content.Data)
		assert.Equal(t, "api.md", knowledge.lastAdd.Content.Name)
		assert.Equal(t, "wiki", knowledge.lastAdd.Source)
		assert.Equal(t, "md", knowledge.lastAdd.DeclaredType)
		assert.Equal(t, "identity", knowledge.lastAdd.Metadata["team"])
	})

	t.Run("ingests path", func(t *testing.T) {
		knowledge := &mockKnowledgeService{docID: "doc-2"}
		server := newTestServer(t, knowledge)

		_, output, err := server.handleAddDocument(ctx, nil, AddDocumentInput{Path: "/docs/a.txt"})

		require.NoError(t, err)
		assert.Equal(t, "doc-2", output.DocID)
		assert.Nil(t, knowledge.lastAdd.Content.Data)
		assert.Equal(t, "/docs/a.txt", knowledge.lastAdd.Content.Path)
	})

	t.Run("requires content or path", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{})

		_, _, err := server.handleAddDocument(ctx, nil, AddDocumentInput{Name: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "content or path")
	})

	t.Run("returns error on ingestion failure", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{err: domain.ErrExtraction})

		_, _, err := server.handleAddDocument(ctx, nil, AddDocumentInput{Content: "x"})

		assert.ErrorIs(t, err, domain.ErrExtraction)
	})
}

func TestServer_handleStats(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns counts", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{stats: domain.Stats{
			TotalDocuments:     1,
			TotalEntities:      2,
			TotalRelationships: 1,
			TotalChunks:        3,
			LastUpdated:        updated,
		}})

		_, output, err := server.handleStats(ctx, nil, StatsInput{})

		require.NoError(t, err)
		assert.Equal(t, StatsOutput{
			TotalDocuments:     1,
			TotalEntities:      2,
			TotalRelationships: 1,
			TotalChunks:        3,
			LastUpdated:        "2024-05-01T12:00:00Z",
		}, output)
	})

	t.Run("empty store has no timestamp", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{})

		_, output, err := server.handleStats(ctx, nil, StatsInput{})

		require.NoError(t, err)
		assert.Empty(t, output.LastUpdated)
	})

	t.Run("returns error", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{err: errors.New("boom")})

		_, _, err := server.handleStats(ctx, nil, StatsInput{})

		assert.Error(t, err)
	})
}

func TestServer_handleExportGraph(t *testing.T) {
	ctx := context.Background()

	server := newTestServer(t, &mockKnowledgeService{export: &domain.GraphExport{
		Entities:      []domain.Entity{{ID: "ent-1", Name: "id"}, {ID: "ent-2", Name: "GET /a"}},
		Relationships: []domain.Relationship{{ID: "rel-1", SourceID: "ent-2", TargetID: "ent-1"}},
		Statistics:    domain.Stats{TotalEntities: 2, TotalRelationships: 1},
	}})

	_, output, err := server.handleExportGraph(ctx, nil, ExportInput{})

	require.NoError(t, err)
	assert.Len(t, output.Entities, 2)
	assert.Len(t, output.Relationships, 1)
	assert.Equal(t, 2, output.Statistics.TotalEntities)
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("entities with default limit", func(t *testing.T) {
		knowledge := &mockKnowledgeService{entities: []domain.Entity{{ID: "ent-1", Name: "total"}}}
		server := newTestServer(t, knowledge)

		_, output, err := server.handleSearchEntities(ctx, nil, SearchInput{Query: "total"})

		require.NoError(t, err)
		assert.Equal(t, defaultSearchLimit, knowledge.lastTopK)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "total", output.Entities[0].Name)
	})

	t.Run("chunks with limit", func(t *testing.T) {
		knowledge := &mockKnowledgeService{chunks: []domain.TextChunk{{ID: "chk-1", Content: "x"}}}
		server := newTestServer(t, knowledge)

		_, output, err := server.handleSearchChunks(ctx, nil, SearchInput{Query: "x", Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, knowledge.lastTopK)
		assert.Equal(t, 1, output.Count)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{err: errors.New("search failed")})

		_, _, err := server.handleSearchChunks(ctx, nil, SearchInput{Query: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}
