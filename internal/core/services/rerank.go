package services

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// queryTerms splits a query on whitespace into unique lowercased terms.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return terms
}

// termHits counts the terms that occur as substrings of text.
func termHits(terms []string, text string) int {
	text = strings.ToLower(text)
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

// rerankEntities orders entities by descending term hits in their name and
// description. Equal counts keep the retrieval order.
func rerankEntities(terms []string, entities []*domain.Entity) {
	if len(terms) == 0 || len(entities) < 2 {
		return
	}
	hits := make(map[*domain.Entity]float64, len(entities))
	for _, e := range entities {
		hits[e] = float64(termHits(terms, e.Name+" "+e.Description))
	}
	sortStableDesc(entities, func(e *domain.Entity) float64 { return hits[e] })
}

// rerankChunks orders chunks by descending term hits in their content.
// Equal counts keep the retrieval order.
func rerankChunks(terms []string, chunks []*domain.TextChunk) {
	if len(terms) == 0 || len(chunks) < 2 {
		return
	}
	hits := make(map[*domain.TextChunk]float64, len(chunks))
	for _, c := range chunks {
		hits[c] = float64(termHits(terms, c.Content))
	}
	sortStableDesc(chunks, func(c *domain.TextChunk) float64 { return hits[c] })
}
