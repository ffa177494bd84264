package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
// All graph, chunk and embedding state sits behind one RWMutex; readers
// work on snapshots and never observe a partially committed document.
type KnowledgeStore struct {
	mu               sync.RWMutex
	entities         map[string]*domain.Entity
	entityOrder      []*domain.Entity
	relationships    []*domain.Relationship
	chunks           []*domain.TextChunk
	chunkIDs         map[string]struct{}
	relationshipIDs  map[string]struct{}
	entityEmbeddings map[string][]float32
	chunkEmbeddings  map[string][]float32
	documents        []domain.DocumentRecord
	lastUpdated      time.Time

	accessMu sync.Mutex
	access   map[string]int
}

// NewKnowledgeStore creates a new in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		entities:         make(map[string]*domain.Entity),
		chunkIDs:         make(map[string]struct{}),
		relationshipIDs:  make(map[string]struct{}),
		entityEmbeddings: make(map[string][]float32),
		chunkEmbeddings:  make(map[string][]float32),
		access:           make(map[string]int),
	}
}

// Commit validates and applies one document's contributions atomically.
func (s *KnowledgeStore) Commit(ctx context.Context, batch *domain.IngestBatch) error {
	if batch == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(batch); err != nil {
		return err
	}

	for i := range batch.Entities {
		e := batch.Entities[i]
		s.entities[e.ID] = &e
		s.entityOrder = append(s.entityOrder, &e)
		if len(e.Embedding) > 0 {
			s.entityEmbeddings[e.ID] = e.Embedding
		}
	}

	for i := range batch.Relationships {
		r := batch.Relationships[i]
		s.relationships = append(s.relationships, &r)
		s.relationshipIDs[r.ID] = struct{}{}
	}

	for i := range batch.Chunks {
		c := batch.Chunks[i]
		s.chunks = append(s.chunks, &c)
		s.chunkIDs[c.ID] = struct{}{}
		if len(c.Embedding) > 0 {
			s.chunkEmbeddings[c.ID] = c.Embedding
		}
	}

	now := time.Now()
	record := batch.Record
	if record.IngestedAt.IsZero() {
		record.IngestedAt = now
	}
	s.documents = append(s.documents, record)
	s.lastUpdated = now

	return nil
}

// validate checks a batch against the current state. Caller holds the write lock.
func (s *KnowledgeStore) validate(batch *domain.IngestBatch) error {
	pending := make(map[string]struct{}, len(batch.Entities))

	for _, e := range batch.Entities {
		if e.ID == "" {
			return fmt.Errorf("%w: entity without id", domain.ErrInvalidInput)
		}
		if _, ok := s.entities[e.ID]; ok {
			return fmt.Errorf("%w: entity %s", domain.ErrDuplicateID, e.ID)
		}
		if _, ok := pending[e.ID]; ok {
			return fmt.Errorf("%w: entity %s", domain.ErrDuplicateID, e.ID)
		}
		pending[e.ID] = struct{}{}
	}

	known := func(id string) bool {
		if _, ok := s.entities[id]; ok {
			return true
		}
		_, ok := pending[id]
		return ok
	}

	relIDs := make(map[string]struct{}, len(batch.Relationships))
	for _, r := range batch.Relationships {
		if _, ok := s.relationshipIDs[r.ID]; ok {
			return fmt.Errorf("%w: relationship %s", domain.ErrDuplicateID, r.ID)
		}
		if _, ok := relIDs[r.ID]; ok {
			return fmt.Errorf("%w: relationship %s", domain.ErrDuplicateID, r.ID)
		}
		relIDs[r.ID] = struct{}{}

		if !known(r.SourceID) || !known(r.TargetID) {
			return fmt.Errorf("%w: %s (%s -> %s)", domain.ErrDanglingRelationship, r.ID, r.SourceID, r.TargetID)
		}
	}

	chunkIDs := make(map[string]struct{}, len(batch.Chunks))
	for _, c := range batch.Chunks {
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("%w: chunk %s has no content", domain.ErrInvalidInput, c.ID)
		}
		if _, ok := s.chunkIDs[c.ID]; ok {
			return fmt.Errorf("%w: chunk %s", domain.ErrDuplicateID, c.ID)
		}
		if _, ok := chunkIDs[c.ID]; ok {
			return fmt.Errorf("%w: chunk %s", domain.ErrDuplicateID, c.ID)
		}
		chunkIDs[c.ID] = struct{}{}
	}

	return nil
}

// Snapshot returns a consistent read-only view of the store.
// The slices and maps are copies; the items they point to are shared and
// must not be modified.
func (s *KnowledgeStore) Snapshot(_ context.Context) (*driven.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &driven.Snapshot{
		Entities:         append([]*domain.Entity(nil), s.entityOrder...),
		EntityByID:       make(map[string]*domain.Entity, len(s.entities)),
		Relationships:    append([]*domain.Relationship(nil), s.relationships...),
		Chunks:           append([]*domain.TextChunk(nil), s.chunks...),
		EntityEmbeddings: make(map[string][]float32, len(s.entityEmbeddings)),
		ChunkEmbeddings:  make(map[string][]float32, len(s.chunkEmbeddings)),
		Documents:        len(s.documents),
		LastUpdated:      s.lastUpdated,
		TakenAt:          time.Now(),
	}
	for id, e := range s.entities {
		snap.EntityByID[id] = e
	}
	for id, v := range s.entityEmbeddings {
		snap.EntityEmbeddings[id] = v
	}
	for id, v := range s.chunkEmbeddings {
		snap.ChunkEmbeddings[id] = v
	}

	return snap, nil
}

// Stats returns live counts of the store contents.
func (s *KnowledgeStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Stats{
		TotalDocuments:     len(s.documents),
		TotalEntities:      len(s.entities),
		TotalRelationships: len(s.relationships),
		TotalChunks:        len(s.chunks),
		LastUpdated:        s.lastUpdated,
	}, nil
}

// Documents returns the registry entries in ingestion order.
func (s *KnowledgeStore) Documents(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.DocumentRecord, len(s.documents))
	copy(docs, s.documents)
	return docs, nil
}

// RecordAccess increments the access counter of each id.
func (s *KnowledgeStore) RecordAccess(ids ...string) {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()

	for _, id := range ids {
		s.access[id]++
	}
}

// AccessCount returns how many times an id was returned by a query.
func (s *KnowledgeStore) AccessCount(id string) int {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()

	return s.access[id]
}
