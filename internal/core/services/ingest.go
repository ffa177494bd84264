package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// inlineSource is the source of documents submitted without path or name.
const inlineSource = "inline"

// AddDocument extracts, chunks, indexes and stores one document.
// Extraction and embedding run outside the store lock; the result is
// committed in one step so a failure leaves the store unchanged.
func (s *KnowledgeService) AddDocument(ctx context.Context, req domain.AddDocumentRequest) (string, error) {
	logger.Section("Add Document")

	raw := req.Content
	if len(raw.Data) == 0 && raw.Path == "" {
		return "", fmt.Errorf("add document: %w: no content or path", domain.ErrInvalidInput)
	}
	name := raw.DisplayName()

	raw.Type = s.registry.DetectType(&raw, req.DeclaredType)
	source := documentSource(req)
	docID := s.newID("doc-")
	logger.Debug("Document %s: type=%s source=%s id=%s", name, raw.Type, source, docID)

	done := logger.Stage("extract")
	text, err := s.registry.Extract(ctx, &raw)
	done()
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", name, err)
		return "", fmt.Errorf("add document %s: %w", name, err)
	}

	chunks, err := s.chunker.Chunk(ctx, docID, source, text)
	if err != nil {
		return "", fmt.Errorf("add document %s: chunk: %w", name, err)
	}

	entities, relationships, err := s.extractor.Extract(ctx, docID, source, text)
	if err != nil {
		return "", fmt.Errorf("add document %s: extract knowledge: %w", name, err)
	}
	logger.Debug("Derived %d chunks, %d entities, %d relationships",
		len(chunks), len(entities), len(relationships))

	applyMetadata(req.Metadata, chunks, entities)

	if err := s.embedIndex(ctx, chunks, entities); err != nil {
		logger.Warn("Embedding failed for %s: %v", name, err)
		return "", fmt.Errorf("add document %s: %w", name, err)
	}

	batch := &domain.IngestBatch{
		Record: domain.DocumentRecord{
			DocID:             docID,
			Source:            source,
			Type:              raw.Type,
			Metadata:          copyMap(req.Metadata),
			ChunkCount:        len(chunks),
			EntityCount:       len(entities),
			RelationshipCount: len(relationships),
			IngestedAt:        time.Now(),
		},
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
	}
	if err := s.store.Commit(ctx, batch); err != nil {
		return "", fmt.Errorf("add document %s: commit: %w", name, err)
	}

	logger.Info("Ingested %s as %s (%d chunks, %d entities, %d relationships)",
		name, docID, len(chunks), len(entities), len(relationships))
	return docID, nil
}

// embedIndex attaches an embedding to every chunk and entity with a single
// batch call. Nothing is attached unless every vector is valid.
func (s *KnowledgeService) embedIndex(ctx context.Context, chunks []domain.TextChunk, entities []domain.Entity) error {
	texts := make([]string, 0, len(chunks)+len(entities))
	for i := range chunks {
		texts = append(texts, chunks[i].Content)
	}
	for i := range entities {
		texts = append(texts, entityText(&entities[i]))
	}
	if len(texts) == 0 {
		return nil
	}

	vecs, err := s.embed(ctx, texts)
	if err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	for i := range entities {
		entities[i].Embedding = vecs[len(chunks)+i]
	}
	return nil
}

// embedQuery returns the embedding of a query text.
func (s *KnowledgeService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// embed calls the embedding service under the configured timeout and checks
// that it returned one vector of a consistent dimension per text.
func (s *KnowledgeService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, domain.ErrEmbeddingUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	done := logger.Stage(fmt.Sprintf("embed %d texts", len(texts)))
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	done()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbedding, s.embedder.ModelName(), err)
	}

	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vecs), len(texts))
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrEmbedding, i, len(v), dim)
		}
	}
	return vecs, nil
}

// entityText is the text embedded for an entity.
func entityText(e *domain.Entity) string {
	if e.Description == "" {
		return e.Name
	}
	return e.Name + " " + e.Description
}

// documentSource picks the source identifier of a request.
func documentSource(req domain.AddDocumentRequest) string {
	switch {
	case req.Source != "":
		return req.Source
	case req.Content.Path != "":
		return req.Content.Path
	case req.Content.Name != "":
		return req.Content.Name
	default:
		return inlineSource
	}
}

// applyMetadata copies caller metadata onto chunks and entities without
// overriding keys the pipeline already set.
func applyMetadata(metadata map[string]any, chunks []domain.TextChunk, entities []domain.Entity) {
	if len(metadata) == 0 {
		return
	}
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any, len(metadata))
		}
		mergeMissing(chunks[i].Metadata, metadata)
	}
	for i := range entities {
		if entities[i].Properties == nil {
			entities[i].Properties = make(map[string]any, len(metadata))
		}
		mergeMissing(entities[i].Properties, metadata)
	}
}

func mergeMissing(dst, src map[string]any) {
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
