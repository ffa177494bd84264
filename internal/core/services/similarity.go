package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// view is the part of a snapshot a query may see after filtering.
type view struct {
	entities         []*domain.Entity
	entityByID       map[string]*domain.Entity
	relationships    []*domain.Relationship
	chunks           []*domain.TextChunk
	entityEmbeddings map[string][]float32
	chunkEmbeddings  map[string][]float32
}

// newView applies equality filters to a snapshot. Relationships are kept
// only when both endpoints pass the filter.
func newView(snap *driven.Snapshot, filters map[string]any) *view {
	v := &view{
		entityEmbeddings: snap.EntityEmbeddings,
		chunkEmbeddings:  snap.ChunkEmbeddings,
	}

	if len(filters) == 0 {
		v.entities = snap.Entities
		v.entityByID = snap.EntityByID
		v.relationships = snap.Relationships
		v.chunks = snap.Chunks
		return v
	}

	v.entityByID = make(map[string]*domain.Entity)
	for _, e := range snap.Entities {
		if matchesAll(filters, e.Properties, nil) {
			v.entities = append(v.entities, e)
			v.entityByID[e.ID] = e
		}
	}
	for _, rel := range snap.Relationships {
		_, from := v.entityByID[rel.SourceID]
		_, to := v.entityByID[rel.TargetID]
		if from && to {
			v.relationships = append(v.relationships, rel)
		}
	}
	for _, c := range snap.Chunks {
		source := c.Source
		if matchesAll(filters, c.Metadata, &source) {
			v.chunks = append(v.chunks, c)
		}
	}
	return v
}

// matchesAll reports whether every filter equals the value under its key.
// A non-nil source overrides the "source" key.
func matchesAll(filters, values map[string]any, source *string) bool {
	for key, want := range filters {
		var got any
		var ok bool
		if key == domain.PropSource && source != nil {
			got, ok = *source, true
		} else {
			got, ok = values[key]
		}
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// cosine returns the cosine similarity of two vectors. Vectors of different
// dimension or zero magnitude have similarity 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankEntities returns up to topK entities by descending similarity to the
// query vector. Entities without an embedding are skipped. The result is
// cached for the lifetime of the retriever.
func (r *retriever) rankEntities() []*domain.Entity {
	if r.seeded {
		return r.seeds
	}
	r.seeded = true

	var ranked []*domain.Entity
	scores := make(map[string]float64)
	for _, e := range r.view.entities {
		emb, ok := r.view.entityEmbeddings[e.ID]
		if !ok {
			continue
		}
		scores[e.ID] = cosine(r.vec, emb)
		ranked = append(ranked, e)
	}

	sortStableDesc(ranked, func(e *domain.Entity) float64 { return scores[e.ID] })
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	r.seeds = ranked
	return ranked
}

// rankChunks returns up to chunkTopK chunks by descending similarity to the
// query vector. Chunks without an embedding are skipped.
func (r *retriever) rankChunks() []*domain.TextChunk {
	var ranked []*domain.TextChunk
	scores := make(map[string]float64)
	for _, c := range r.view.chunks {
		emb, ok := r.view.chunkEmbeddings[c.ID]
		if !ok {
			continue
		}
		scores[c.ID] = cosine(r.vec, emb)
		ranked = append(ranked, c)
	}

	sortStableDesc(ranked, func(c *domain.TextChunk) float64 { return scores[c.ID] })
	if len(ranked) > r.chunkTopK {
		ranked = ranked[:r.chunkTopK]
	}
	return ranked
}

// sortStableDesc sorts items by descending score, keeping the input order
// for equal scores.
func sortStableDesc[T any](items []T, score func(T) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
}
