package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// DefaultEmbeddingTimeout bounds a single embedding call.
const DefaultEmbeddingTimeout = 30 * time.Second

// KnowledgeService ingests documents into the knowledge store and answers
// queries against it.
type KnowledgeService struct {
	registry     driven.ExtractorRegistry
	chunker      driven.Chunker
	extractor    driven.KnowledgeExtractor
	store        driven.KnowledgeStore
	embedder     driven.EmbeddingService
	embedTimeout time.Duration
	defaults     domain.QueryOptions
	newID        func(prefix string) string
}

// ServiceOption configures a KnowledgeService.
type ServiceOption func(*KnowledgeService)

// WithEmbeddingTimeout sets the per-call embedding timeout.
func WithEmbeddingTimeout(d time.Duration) ServiceOption {
	return func(s *KnowledgeService) {
		if d > 0 {
			s.embedTimeout = d
		}
	}
}

// WithQueryDefaults sets the options used for fields a query leaves unset.
func WithQueryDefaults(opts domain.QueryOptions) ServiceOption {
	return func(s *KnowledgeService) {
		if opts.Mode != "" {
			s.defaults.Mode = opts.Mode
		}
		if opts.TopK > 0 {
			s.defaults.TopK = opts.TopK
		}
		if opts.ChunkTopK > 0 {
			s.defaults.ChunkTopK = opts.ChunkTopK
		}
		if opts.Rerank != nil {
			s.defaults.Rerank = domain.Bool(*opts.Rerank)
		}
	}
}

// WithIDGenerator replaces the document and synthetic entity id generator.
func WithIDGenerator(fn func(prefix string) string) ServiceOption {
	return func(s *KnowledgeService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewKnowledgeService creates a new knowledge service.
// The embedder is optional (can be nil); ingestion and vector modes then
// fail with domain.ErrEmbeddingUnavailable.
func NewKnowledgeService(
	registry driven.ExtractorRegistry,
	chunker driven.Chunker,
	extractor driven.KnowledgeExtractor,
	store driven.KnowledgeStore,
	embedder driven.EmbeddingService,
	opts ...ServiceOption,
) *KnowledgeService {
	s := &KnowledgeService{
		registry:     registry,
		chunker:      chunker,
		extractor:    extractor,
		store:        store,
		embedder:     embedder,
		embedTimeout: DefaultEmbeddingTimeout,
		defaults:     domain.DefaultQueryOptions(),
		newID: func(prefix string) string {
			return prefix + uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns live counts of the store contents.
func (s *KnowledgeService) Stats(ctx context.Context) (domain.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// ExportKnowledgeGraph returns every entity and relationship with the
// statistics of the same snapshot.
func (s *KnowledgeService) ExportKnowledgeGraph(ctx context.Context) (*domain.GraphExport, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	export := &domain.GraphExport{
		Entities:      make([]domain.Entity, 0, len(snap.Entities)),
		Relationships: make([]domain.Relationship, 0, len(snap.Relationships)),
		Statistics:    snap.Stats(),
	}
	for _, e := range snap.Entities {
		export.Entities = append(export.Entities, entityValue(e))
	}
	for _, r := range snap.Relationships {
		export.Relationships = append(export.Relationships, *r)
	}

	logger.Debug("Exported %d entities, %d relationships", len(export.Entities), len(export.Relationships))
	return export, nil
}

// ListDocuments returns the document registry in ingestion order.
func (s *KnowledgeService) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	docs, err := s.store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// SearchEntities ranks entities by vector similarity to the query.
func (s *KnowledgeService) SearchEntities(ctx context.Context, query string, topK int) ([]domain.Entity, error) {
	if topK <= 0 {
		topK = s.defaults.TopK
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}

	r := newRetriever(newView(snap, nil), query, vec, topK, 0)
	ranked := r.rankEntities()

	out := make([]domain.Entity, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, entityValue(e))
	}
	return out, nil
}

// SearchChunks ranks chunks by vector similarity to the query.
func (s *KnowledgeService) SearchChunks(ctx context.Context, query string, topK int) ([]domain.TextChunk, error) {
	if topK <= 0 {
		topK = s.defaults.ChunkTopK
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	r := newRetriever(newView(snap, nil), query, vec, 0, topK)
	ranked := r.rankChunks()

	out := make([]domain.TextChunk, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, chunkValue(c))
	}
	return out, nil
}

// entityValue copies an entity out of the store without its embedding.
func entityValue(e *domain.Entity) domain.Entity {
	v := *e
	v.Embedding = nil
	return v
}

// chunkValue copies a chunk out of the store without its embedding.
func chunkValue(c *domain.TextChunk) domain.TextChunk {
	v := *c
	v.Embedding = nil
	return v
}
