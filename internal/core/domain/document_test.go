package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawContent_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawContent
		expected string
	}{
		{
			name:     "name wins",
			raw:      RawContent{Name: "report.pdf", Path: "/tmp/x.pdf"},
			expected: "report.pdf",
		},
		{
			name:     "falls back to path",
			raw:      RawContent{Path: "/docs/api.md"},
			expected: "/docs/api.md",
		},
		{
			name:     "generic when unnamed",
			raw:      RawContent{Data: []byte("hello")},
			expected: "document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.raw.DisplayName())
		})
	}
}

func TestEntity_Provenance(t *testing.T) {
	e := &Entity{
		ID:   "ent-1",
		Name: "GET /users",
		Type: EntityTypeAPIEndpoint,
		Properties: map[string]any{
			PropDocID:  "doc-1",
			PropSource: "api.md",
		},
	}

	assert.Equal(t, "api.md", e.Source())
	assert.Equal(t, "doc-1", e.DocID())
}

func TestEntity_Provenance_Missing(t *testing.T) {
	var nilEntity *Entity
	assert.Empty(t, nilEntity.Source())
	assert.Empty(t, nilEntity.DocID())

	bare := &Entity{ID: "ent-1"}
	assert.Empty(t, bare.Source())
	assert.Empty(t, bare.DocID())

	wrongType := &Entity{Properties: map[string]any{PropSource: 42}}
	assert.Empty(t, wrongType.Source())
}

func TestRelationship_Touches(t *testing.T) {
	r := &Relationship{ID: "rel-1", SourceID: "ent-a", TargetID: "ent-b"}

	assert.True(t, r.Touches(map[string]bool{"ent-a": true}))
	assert.True(t, r.Touches(map[string]bool{"ent-b": true}))
	assert.False(t, r.Touches(map[string]bool{"ent-c": true}))
	assert.False(t, r.Touches(nil))
}
