package domain

import (
	"strings"
	"time"
)

// Mode selects one of the fixed retrieval strategies.
// Each query is dispatched independently; there is no state between modes.
type Mode string

// Available retrieval modes.
const (
	// ModeLocal ranks entities and chunks by vector similarity (precision).
	ModeLocal Mode = "local"

	// ModeGlobal walks the relationship graph from the local seed set (recall).
	ModeGlobal Mode = "global"

	// ModeHybrid ranks chunks by vector similarity only; it returns no
	// entities or relationships.
	ModeHybrid Mode = "hybrid"

	// ModeNaive matches the lowercased query as a substring.
	ModeNaive Mode = "naive"

	// ModeMix blends local, global and naive entity rankings.
	ModeMix Mode = "mix"

	// ModeBypass skips ranking and forwards the raw query with the latest chunks.
	ModeBypass Mode = "bypass"
)

// DefaultMode is used when no mode or an unknown mode is requested.
const DefaultMode = ModeMix

// ParseMode resolves a mode string case-insensitively.
// Unknown values map to DefaultMode and ok is false so the caller can warn.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m.IsValid() {
		return m, true
	}
	return DefaultMode, false
}

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	switch m {
	case ModeLocal, ModeGlobal, ModeHybrid, ModeNaive, ModeMix, ModeBypass:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode ranks by query embedding.
func (m Mode) RequiresEmbedding() bool {
	switch m {
	case ModeLocal, ModeGlobal, ModeHybrid, ModeMix:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeLocal:
		return "Local (entity + chunk vector similarity)"
	case ModeGlobal:
		return "Global (graph traversal from vector seeds)"
	case ModeHybrid:
		return "Hybrid (chunk vector similarity)"
	case ModeNaive:
		return "Naive (keyword containment)"
	case ModeMix:
		return "Mix (blended local + global + naive)"
	case ModeBypass:
		return "Bypass (raw query + latest chunks)"
	default:
		return "Unknown"
	}
}

// AllModes returns all available retrieval modes.
func AllModes() []Mode {
	return []Mode{ModeLocal, ModeGlobal, ModeHybrid, ModeNaive, ModeMix, ModeBypass}
}

// Query defaults.
const (
	DefaultTopK      = 10
	DefaultChunkTopK = 5
)

// QueryOptions configures a query.
type QueryOptions struct {
	// Mode is the retrieval strategy. Empty means DefaultMode.
	Mode Mode

	// TopK bounds the entity list (default 10).
	TopK int

	// ChunkTopK bounds the chunk list (default 5).
	ChunkTopK int

	// Rerank toggles the lexical reranking pass. Nil uses the engine
	// default, which is enabled unless settings say otherwise.
	Rerank *bool

	// Filters restricts candidates by equality on provenance/metadata.
	// The key "source" matches the chunk source and the entity source property.
	Filters map[string]any
}

// DefaultQueryOptions returns options with the documented defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Mode:      DefaultMode,
		TopK:      DefaultTopK,
		ChunkTopK: DefaultChunkTopK,
		Rerank:    Bool(true),
	}
}

// RerankEnabled reports whether reranking applies. Unset means enabled.
func (o QueryOptions) RerankEnabled() bool {
	return o.Rerank == nil || *o.Rerank
}

// Bool returns a pointer to v for optional fields such as QueryOptions.Rerank.
func Bool(v bool) *bool {
	return &v
}

// Citation types.
const (
	CitationEntity = "entity"
	CitationChunk  = "chunk"
)

// Citation is a human-readable reference to one result item.
type Citation struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// RetrievalResult is the answer to a query.
type RetrievalResult struct {
	Query          string         `json:"query"`
	Mode           Mode           `json:"mode"`
	Entities       []Entity       `json:"entities"`
	Relationships  []Relationship `json:"relationships"`
	Chunks         []TextChunk    `json:"chunks"`
	Citations      []Citation     `json:"citations"`
	Confidence     float64        `json:"confidence"`
	ProcessingTime time.Duration  `json:"processing_time"`
}

// Stats summarises the live contents of the store.
type Stats struct {
	TotalDocuments     int       `json:"total_documents"`
	TotalEntities      int       `json:"total_entities"`
	TotalRelationships int       `json:"total_relationships"`
	TotalChunks        int       `json:"total_chunks"`
	LastUpdated        time.Time `json:"last_updated"`
}

// GraphExport is a full snapshot of the knowledge graph.
type GraphExport struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Statistics    Stats          `json:"statistics"`
}
