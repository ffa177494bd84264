package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Query answers a query with the retrieval mode in opts. Unknown modes fall
// back to mix with a warning. Zero TopK and ChunkTopK use the service
// defaults.
func (s *KnowledgeService) Query(
	ctx context.Context, query string, opts domain.QueryOptions,
) (*domain.RetrievalResult, error) {
	start := time.Now()
	logger.Section("Query Execution")
	logger.Debug("Query: %q", query)

	opts = s.normaliseOptions(opts)
	logger.Info("Retrieval mode: %s", opts.Mode.Description())
	logger.Debug("top_k=%d chunk_top_k=%d rerank=%t filters=%v",
		opts.TopK, opts.ChunkTopK, opts.RerankEnabled(), opts.Filters)

	// Bypass forwards the raw query whatever it is.
	if strings.TrimSpace(query) == "" && opts.Mode != domain.ModeBypass {
		logger.Debug("Empty query, returning no results")
		result := compose(query, opts.Mode, retrieval{})
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	v := newView(snap, opts.Filters)
	logger.Debug("Candidates: %d entities, %d relationships, %d chunks",
		len(v.entities), len(v.relationships), len(v.chunks))

	var vec []float32
	if opts.Mode.RequiresEmbedding() {
		vec, err = s.embedQuery(ctx, query)
		if err != nil {
			logger.Warn("Query embedding failed: %v", err)
			return nil, fmt.Errorf("query: %w", err)
		}
	}

	r := newRetriever(v, query, vec, opts.TopK, opts.ChunkTopK)

	var res retrieval
	switch opts.Mode {
	case domain.ModeLocal:
		res = r.local()
	case domain.ModeGlobal:
		res = r.global()
	case domain.ModeHybrid:
		res = r.hybrid()
	case domain.ModeNaive:
		res = r.naive()
	case domain.ModeBypass:
		res = r.bypass(s.newID("ent-"))
	default:
		res = r.mix()
	}
	logger.Debug("Retrieved %d entities, %d relationships, %d chunks",
		len(res.entities), len(res.relationships), len(res.chunks))

	if opts.RerankEnabled() {
		terms := queryTerms(query)
		rerankEntities(terms, res.entities)
		rerankChunks(terms, res.chunks)
	}

	result := compose(query, opts.Mode, res)
	result.ProcessingTime = time.Since(start)

	s.store.RecordAccess(res.ids()...)

	logger.Debug("Confidence %.2f in %s", result.Confidence, result.ProcessingTime)
	return result, nil
}

// normaliseOptions resolves the mode and fills unset bounds and the rerank
// toggle from the defaults.
func (s *KnowledgeService) normaliseOptions(opts domain.QueryOptions) domain.QueryOptions {
	if opts.Mode == "" {
		opts.Mode = s.defaults.Mode
	}
	mode, ok := domain.ParseMode(string(opts.Mode))
	if !ok {
		logger.Warn("Unknown retrieval mode %q, falling back to %s", opts.Mode, mode)
	}
	opts.Mode = mode

	if opts.TopK <= 0 {
		opts.TopK = s.defaults.TopK
	}
	if opts.ChunkTopK <= 0 {
		opts.ChunkTopK = s.defaults.ChunkTopK
	}
	if opts.Rerank == nil {
		opts.Rerank = s.defaults.Rerank
	}
	return opts
}

// retrieval is the raw output of one mode before reranking.
type retrieval struct {
	entities      []*domain.Entity
	relationships []*domain.Relationship
	chunks        []*domain.TextChunk
}

// ids lists every returned item id.
func (r retrieval) ids() []string {
	ids := make([]string, 0, len(r.entities)+len(r.relationships)+len(r.chunks))
	for _, e := range r.entities {
		ids = append(ids, e.ID)
	}
	for _, rel := range r.relationships {
		ids = append(ids, rel.ID)
	}
	for _, c := range r.chunks {
		ids = append(ids, c.ID)
	}
	return ids
}

// retriever runs the retrieval modes over one view of the store.
// Rankings shared between modes are computed once.
type retriever struct {
	view      *view
	query     string
	vec       []float32
	topK      int
	chunkTopK int

	seeds     []*domain.Entity
	seeded    bool
	adjacency map[string][]int
}

func newRetriever(v *view, query string, vec []float32, topK, chunkTopK int) *retriever {
	return &retriever{
		view:      v,
		query:     query,
		vec:       vec,
		topK:      topK,
		chunkTopK: chunkTopK,
	}
}

// local ranks entities and chunks by similarity and keeps the relationships
// touching the selected entities.
func (r *retriever) local() retrieval {
	entities := r.rankEntities()
	return retrieval{
		entities:      entities,
		relationships: r.touching(entities),
		chunks:        r.rankChunks(),
	}
}

// global walks the relationship graph breadth-first from the local seeds.
// At most 2*topK relationships are discovered and no entity is visited twice.
func (r *retriever) global() retrieval {
	seeds := r.rankEntities()
	adjacency := r.adjacencyIndex()
	limit := 2 * r.topK

	visited := make(map[string]bool, len(seeds))
	explored := make([]*domain.Entity, 0, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, e := range seeds {
		visited[e.ID] = true
		explored = append(explored, e)
		queue = append(queue, e.ID)
	}

	discovered := make(map[int]bool)
	var relationships []*domain.Relationship

	for len(queue) > 0 && len(relationships) < limit {
		id := queue[0]
		queue = queue[1:]

		for _, idx := range adjacency[id] {
			if len(relationships) >= limit {
				break
			}
			if discovered[idx] {
				continue
			}
			discovered[idx] = true

			rel := r.view.relationships[idx]
			relationships = append(relationships, rel)

			next := rel.TargetID
			if next == id {
				next = rel.SourceID
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if e, ok := r.view.entityByID[next]; ok {
				explored = append(explored, e)
				queue = append(queue, next)
			}
		}
	}

	return retrieval{
		entities:      explored,
		relationships: relationships,
		chunks:        r.chunksMentioning(explored),
	}
}

// hybrid ranks chunks by similarity only. It returns no entities or
// relationships.
func (r *retriever) hybrid() retrieval {
	return retrieval{chunks: r.rankChunks()}
}

// naive matches the lowercased query as a substring of entity names and
// descriptions and of chunk content.
func (r *retriever) naive() retrieval {
	q := strings.ToLower(r.query)

	var entities []*domain.Entity
	for _, e := range r.view.entities {
		if len(entities) >= r.topK {
			break
		}
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			entities = append(entities, e)
		}
	}

	var chunks []*domain.TextChunk
	for _, c := range r.view.chunks {
		if len(chunks) >= r.chunkTopK {
			break
		}
		if strings.Contains(strings.ToLower(c.Content), q) {
			chunks = append(chunks, c)
		}
	}

	return retrieval{
		entities:      entities,
		relationships: r.touching(entities),
		chunks:        chunks,
	}
}

// bypass returns the raw query as a synthetic entity plus the most recently
// added chunks, newest first.
func (r *retriever) bypass(id string) retrieval {
	entity := &domain.Entity{
		ID:          id,
		Name:        r.query,
		Type:        domain.EntityTypeQuery,
		Description: "raw query",
		Properties: map[string]any{
			domain.PropSource: "query",
		},
	}

	chunks := make([]*domain.TextChunk, 0, r.chunkTopK)
	for i := len(r.view.chunks) - 1; i >= 0 && len(chunks) < r.chunkTopK; i-- {
		chunks = append(chunks, r.view.chunks[i])
	}

	return retrieval{
		entities: []*domain.Entity{entity},
		chunks:   chunks,
	}
}

// Blend weights of the mix mode.
const (
	mixLocalWeight  = 0.4
	mixGlobalWeight = 0.3
	mixNaiveWeight  = 0.3
)

// mix blends the local, global and naive entity rankings, then derives
// relationships and chunks from the final entity set.
func (r *retriever) mix() retrieval {
	local := r.rankEntities()
	global := r.global().entities
	naive := r.naive().entities

	scores := make(map[string]float64)
	var candidates []*domain.Entity
	blend := func(list []*domain.Entity, weight float64) {
		for i, e := range list {
			if _, seen := scores[e.ID]; !seen {
				candidates = append(candidates, e)
			}
			scores[e.ID] += weight * rankScore(i, r.topK)
		}
	}
	blend(local, mixLocalWeight)
	blend(global, mixGlobalWeight)
	blend(naive, mixNaiveWeight)

	sortStableDesc(candidates, func(e *domain.Entity) float64 { return scores[e.ID] })
	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}

	return retrieval{
		entities:      candidates,
		relationships: r.touching(candidates),
		chunks:        r.chunksMentioning(candidates),
	}
}

// rankScore is (topK - i) / topK for position i, and 0 past the end.
func rankScore(i, topK int) float64 {
	if topK <= 0 || i >= topK {
		return 0
	}
	return float64(topK-i) / float64(topK)
}

// touching returns the relationships with an endpoint in the entity set,
// in store order.
func (r *retriever) touching(entities []*domain.Entity) []*domain.Relationship {
	if len(entities) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(entities))
	for _, e := range entities {
		ids[e.ID] = true
	}

	var out []*domain.Relationship
	for _, rel := range r.view.relationships {
		if rel.Touches(ids) {
			out = append(out, rel)
		}
	}
	return out
}

// chunksMentioning returns chunks whose content contains an entity id,
// in store order, up to chunkTopK.
func (r *retriever) chunksMentioning(entities []*domain.Entity) []*domain.TextChunk {
	if len(entities) == 0 {
		return nil
	}

	var out []*domain.TextChunk
	for _, c := range r.view.chunks {
		if len(out) >= r.chunkTopK {
			break
		}
		for _, e := range entities {
			if strings.Contains(c.Content, e.ID) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// adjacencyIndex maps each entity id to the indices of its relationships.
// It is built once per query.
func (r *retriever) adjacencyIndex() map[string][]int {
	if r.adjacency != nil {
		return r.adjacency
	}
	r.adjacency = make(map[string][]int)
	for i, rel := range r.view.relationships {
		r.adjacency[rel.SourceID] = append(r.adjacency[rel.SourceID], i)
		if rel.TargetID != rel.SourceID {
			r.adjacency[rel.TargetID] = append(r.adjacency[rel.TargetID], i)
		}
	}
	return r.adjacency
}
