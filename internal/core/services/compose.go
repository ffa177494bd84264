package services

import (
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Snippet lengths of citations, in characters.
const (
	entitySnippetLen = 100
	chunkSnippetLen  = 150
)

// compose builds the result returned to callers: copies of the retrieved
// items, one citation per entity and chunk, and the confidence score.
func compose(query string, mode domain.Mode, res retrieval) *domain.RetrievalResult {
	result := &domain.RetrievalResult{
		Query:         query,
		Mode:          mode,
		Entities:      make([]domain.Entity, 0, len(res.entities)),
		Relationships: make([]domain.Relationship, 0, len(res.relationships)),
		Chunks:        make([]domain.TextChunk, 0, len(res.chunks)),
		Citations:     make([]domain.Citation, 0, len(res.entities)+len(res.chunks)),
	}

	for _, e := range res.entities {
		result.Entities = append(result.Entities, entityValue(e))
		result.Citations = append(result.Citations, domain.Citation{
			Type:    domain.CitationEntity,
			ID:      e.ID,
			Name:    e.Name,
			Source:  e.Source(),
			Snippet: snippet(e.Description, entitySnippetLen),
		})
	}
	for _, rel := range res.relationships {
		result.Relationships = append(result.Relationships, *rel)
	}
	for _, c := range res.chunks {
		result.Chunks = append(result.Chunks, chunkValue(c))
		result.Citations = append(result.Citations, domain.Citation{
			Type:    domain.CitationChunk,
			ID:      c.ID,
			Source:  c.Source,
			Snippet: snippet(c.Content, chunkSnippetLen),
		})
	}

	result.Confidence = Confidence(len(res.entities), len(res.relationships), len(res.chunks))
	return result
}

// Confidence is a saturation heuristic over the result-set size:
// min(E/5,1)*0.4 + min(R/3,1)*0.3 + min(C/5,1)*0.3.
func Confidence(entities, relationships, chunks int) float64 {
	saturate := func(n, full int) float64 {
		return math.Min(float64(n)/float64(full), 1)
	}
	// Weights in tenths so a saturated result is exactly 1.
	score := (saturate(entities, 5)*4 + saturate(relationships, 3)*3 + saturate(chunks, 5)*3) / 10
	return math.Max(0, math.Min(score, 1))
}

// snippet truncates text to limit characters followed by "...".
func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
