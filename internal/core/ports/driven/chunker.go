package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Chunker splits normalised text into chunks for embedding and retrieval.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits text from the given source into chunks.
	// Every returned chunk has non-empty content and carries the source.
	Chunk(ctx context.Context, docID, source, text string) ([]domain.TextChunk, error)
}
