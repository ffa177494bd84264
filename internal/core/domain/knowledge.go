package domain

// Entity classifications produced by the built-in pattern rules.
const (
	// EntityTypeAPIEndpoint marks "VERB /path" mentions.
	EntityTypeAPIEndpoint = "API_ENDPOINT"

	// EntityTypeParameter marks "key: type" and "key: literal" mentions.
	EntityTypeParameter = "PARAMETER"

	// EntityTypeQuery marks the synthetic entity returned in bypass mode.
	EntityTypeQuery = "QUERY"
)

// RelationHasParameter connects an endpoint to a parameter from the same document.
const RelationHasParameter = "HAS_PARAMETER"

// Property keys carried by entities and relationships for provenance.
const (
	// PropDocID is the id of the document the item was extracted from.
	PropDocID = "doc_id"

	// PropSource is the source identifier (path, URL) of that document.
	PropSource = "source"

	// PropRaw is the raw matched text.
	PropRaw = "raw"
)

// Entity is a typed, named knowledge item extracted from ingested text.
// Entities are immutable once stored except for Embedding, which the
// embedding indexer attaches exactly once before the entity is committed.
type Entity struct {
	// ID is the unique identifier (prefixed "ent-").
	ID string `json:"id"`

	// Name is the display string, typically the raw matched text.
	Name string `json:"name"`

	// Type is a free-form classification tag, e.g. API_ENDPOINT.
	Type string `json:"type"`

	// Description is a short human-readable description.
	Description string `json:"description"`

	// Properties holds provenance (doc_id, source) and rule-specific values.
	Properties map[string]any `json:"properties,omitempty"`

	// Embedding is the dense vector for semantic ranking.
	Embedding []float32 `json:"-"`
}

// Source returns the provenance source identifier, or "" if unknown.
func (e *Entity) Source() string {
	if e == nil || e.Properties == nil {
		return ""
	}
	s, _ := e.Properties[PropSource].(string)
	return s
}

// DocID returns the id of the document the entity was extracted from.
func (e *Entity) DocID() string {
	if e == nil || e.Properties == nil {
		return ""
	}
	s, _ := e.Properties[PropDocID].(string)
	return s
}

// Relationship is a typed directed edge between two entities.
type Relationship struct {
	// ID is the unique identifier (prefixed "rel-").
	ID string `json:"id"`

	// SourceID is the id of the entity the edge starts from.
	SourceID string `json:"source_id"`

	// TargetID is the id of the entity the edge points to.
	TargetID string `json:"target_id"`

	// Type is a free-form tag, e.g. HAS_PARAMETER.
	Type string `json:"type"`

	// Description is a short human-readable description.
	Description string `json:"description"`

	// Properties holds provenance and extra values.
	Properties map[string]any `json:"properties,omitempty"`
}

// Touches returns true if either endpoint is in the given id set.
func (r *Relationship) Touches(ids map[string]bool) bool {
	return ids[r.SourceID] || ids[r.TargetID]
}
