package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// KnowledgeStore holds the entity graph, the chunk list and their embeddings.
// Implementations follow a single-writer/multiple-reader discipline:
// Commit is the only mutation and is applied atomically.
type KnowledgeStore interface {
	// Commit validates and applies everything one document contributes.
	// On error the store is left unchanged.
	Commit(ctx context.Context, batch *domain.IngestBatch) error

	// Snapshot returns a consistent read-only view of the store.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Stats returns live counts of the store contents.
	Stats(ctx context.Context) (domain.Stats, error)

	// Documents returns the registry entries in ingestion order.
	Documents(ctx context.Context) ([]domain.DocumentRecord, error)

	// RecordAccess bumps best-effort access counters for returned items.
	RecordAccess(ids ...string)

	// AccessCount returns the recorded access count for an id.
	AccessCount(id string) int
}

// Snapshot is a consistent view of the store taken under the read lock.
// Slices are owned by the snapshot; items must be treated as read-only.
type Snapshot struct {
	// Entities in insertion order.
	Entities []*domain.Entity

	// EntityByID indexes Entities by id.
	EntityByID map[string]*domain.Entity

	// Relationships in insertion order.
	Relationships []*domain.Relationship

	// Chunks in insertion order.
	Chunks []*domain.TextChunk

	// EntityEmbeddings maps entity id to its vector.
	EntityEmbeddings map[string][]float32

	// ChunkEmbeddings maps chunk id to its vector.
	ChunkEmbeddings map[string][]float32

	// Documents is the number of ingested documents.
	Documents int

	// LastUpdated is the time of the last successful commit.
	LastUpdated time.Time

	// TakenAt is when the snapshot was taken.
	TakenAt time.Time
}

// Stats returns the counts of the snapshot contents.
func (s *Snapshot) Stats() domain.Stats {
	return domain.Stats{
		TotalDocuments:     s.Documents,
		TotalEntities:      len(s.Entities),
		TotalRelationships: len(s.Relationships),
		TotalChunks:        len(s.Chunks),
		LastUpdated:        s.LastUpdated,
	}
}

// Entity returns the entity with the given id, if present.
func (s *Snapshot) Entity(id string) (*domain.Entity, bool) {
	e, ok := s.EntityByID[id]
	return e, ok
}
