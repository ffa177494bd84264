package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// KnowledgeExtractor scans text for typed mentions and derives relationships
// between entities of the same source document.
type KnowledgeExtractor interface {
	// Extract returns entities and relationships found in one document.
	// Relationship endpoints always reference returned entities.
	Extract(ctx context.Context, docID, source, text string) ([]domain.Entity, []domain.Relationship, error)
}
