package domain

import "time"

// Chunk types distinguish free text from tabular sections.
const (
	// ChunkTypeText is a window over free text.
	ChunkTypeText = "text"

	// ChunkTypeTableSection is one section of tabular content.
	ChunkTypeTableSection = "table_section"
)

// RawContent is the content reference handed to AddDocument.
// Either Data or Path must be set; Data wins when both are present.
type RawContent struct {
	// Data is the raw document bytes.
	Data []byte

	// Path is a filesystem path read when Data is empty.
	Path string

	// Name is the display name used in diagnostics (defaults to Path).
	Name string

	// Type is the declared or detected document type (MIME type).
	Type string
}

// DisplayName returns the name used in placeholder text and logs.
func (r *RawContent) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Path != "" {
		return r.Path
	}
	return "document"
}

// AddDocumentRequest describes one document to ingest.
type AddDocumentRequest struct {
	// Content is the raw bytes or path of the document.
	Content RawContent

	// Source identifies the document's origin; defaults to Content.Path or Name.
	Source string

	// DeclaredType is an optional MIME type or alias (pdf, md, csv).
	DeclaredType string

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// TextChunk is a bounded window of raw text used for retrieval.
// Chunks are never mutated after creation.
type TextChunk struct {
	// ID is the unique identifier (prefixed "chk-").
	ID string `json:"id"`

	// Content is the chunk text; never empty.
	Content string `json:"content"`

	// Source is the source identifier of the parent document.
	Source string `json:"source"`

	// ChunkType is "text" or "table_section".
	ChunkType string `json:"chunk_type"`

	// Metadata contains doc_id, position and section title when present.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Embedding is the dense vector for semantic ranking.
	Embedding []float32 `json:"-"`
}

// DocumentRecord is the registry entry for one successful ingestion.
// It is used for statistics only and never gates retrieval.
type DocumentRecord struct {
	DocID             string         `json:"doc_id"`
	Source            string         `json:"source"`
	Type              string         `json:"type"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	ChunkCount        int            `json:"chunk_count"`
	EntityCount       int            `json:"entity_count"`
	RelationshipCount int            `json:"relationship_count"`
	IngestedAt        time.Time      `json:"ingested_at"`
}

// IngestBatch is everything one document contributes to the store.
// It is committed atomically.
type IngestBatch struct {
	Record        DocumentRecord
	Chunks        []TextChunk
	Entities      []Entity
	Relationships []Relationship
}
