package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// KnowledgeService is the engine's inbound port. Front-ends (CLI, MCP)
// drive ingestion and retrieval through it.
type KnowledgeService interface {
	// AddDocument extracts, chunks, indexes and stores one document.
	// It returns the new document id. On error the store is unchanged.
	AddDocument(ctx context.Context, req domain.AddDocumentRequest) (string, error)

	// Query answers a query using the retrieval mode in opts.
	// Unknown modes fall back to mix.
	Query(ctx context.Context, query string, opts domain.QueryOptions) (*domain.RetrievalResult, error)

	// Stats returns live counts of the store contents.
	Stats(ctx context.Context) (domain.Stats, error)

	// ExportKnowledgeGraph returns a read-only snapshot of the graph.
	ExportKnowledgeGraph(ctx context.Context) (*domain.GraphExport, error)

	// ListDocuments returns the document registry in ingestion order.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// SearchEntities ranks entities by vector similarity to the query.
	SearchEntities(ctx context.Context, query string, topK int) ([]domain.Entity, error)

	// SearchChunks ranks chunks by vector similarity to the query.
	SearchChunks(ctx context.Context, query string, topK int) ([]domain.TextChunk, error)
}
