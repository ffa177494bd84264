package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// sequentialIDs returns a deterministic id generator.
func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func TestPatternExtractor_EndpointAndParameter(t *testing.T) {
	p := New()

	entities, rels, err := p.Extract(context.Background(), "doc-1", "api.md", "GET /users/{id}\nid: string")
	require.NoError(t, err)
	require.Len(t, entities, 2)

	endpoint, param := entities[0], entities[1]

	assert.Equal(t, domain.EntityTypeAPIEndpoint, endpoint.Type)
	assert.Equal(t, "GET /users/{id}", endpoint.Name)
	assert.True(t, strings.HasPrefix(endpoint.ID, "ent-"))

	assert.Equal(t, domain.EntityTypeParameter, param.Type)
	assert.Equal(t, "id: string", param.Name)
	assert.Equal(t, "parameter id", param.Description)
	assert.Equal(t, "id: string", param.Properties[domain.PropRaw])

	for _, e := range entities {
		assert.Equal(t, "doc-1", e.DocID())
		assert.Equal(t, "api.md", e.Source())
	}

	require.Len(t, rels, 1)
	assert.Equal(t, domain.RelationHasParameter, rels[0].Type)
	assert.Equal(t, endpoint.ID, rels[0].SourceID)
	assert.Equal(t, param.ID, rels[0].TargetID)
	assert.True(t, strings.HasPrefix(rels[0].ID, "rel-"))
}

func TestPatternExtractor_AllPairs(t *testing.T) {
	p := New(WithIDGenerator(sequentialIDs()))
	text := "POST /orders\nDELETE /orders/{id}\namount: number\ncurrency: \"EUR\"\nid: 42"

	entities, rels, err := p.Extract(context.Background(), "doc-1", "orders.txt", text)
	require.NoError(t, err)

	var endpoints, params int
	for _, e := range entities {
		switch e.Type {
		case domain.EntityTypeAPIEndpoint:
			endpoints++
		case domain.EntityTypeParameter:
			params++
		}
	}
	assert.Equal(t, 2, endpoints)
	assert.Equal(t, 3, params)
	assert.Len(t, rels, endpoints*params)
}

func TestPatternExtractor_ParameterLiterals(t *testing.T) {
	tests := []struct {
		text string
		name string
	}{
		{"limit: integer", "limit: integer"},
		{"enabled: true", "enabled: true"},
		{"ratio: -0.5", "ratio: -0.5"},
		{"label: 'x'", "label: 'x'"},
		{"note: null", "note: null"},
		{"tags:array", "tags:array"},
		{"see id: string here", "id: string"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			entities, _, err := p.Extract(context.Background(), "d", "s", tt.text)
			require.NoError(t, err)
			require.Len(t, entities, 1)
			assert.Equal(t, tt.name, entities[0].Name)
			assert.Equal(t, tt.name, entities[0].Properties[domain.PropRaw])
		})
	}
}

func TestPatternExtractor_NoMatchForPlainProse(t *testing.T) {
	entities, rels, err := New().Extract(context.Background(), "d", "s", "Subject: quarterly report\nThe meeting is at noon.")
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Empty(t, rels)
}

func TestPatternExtractor_EmptyText(t *testing.T) {
	entities, rels, err := New().Extract(context.Background(), "d", "s", "  ")
	require.NoError(t, err)
	assert.Nil(t, entities)
	assert.Nil(t, rels)
}

func TestPatternExtractor_Deterministic(t *testing.T) {
	text := "GET /a\nx: string\nPUT /b\ny: int"

	e1, r1, err := New(WithIDGenerator(sequentialIDs())).Extract(context.Background(), "d", "s", text)
	require.NoError(t, err)
	e2, r2, err := New(WithIDGenerator(sequentialIDs())).Extract(context.Background(), "d", "s", text)
	require.NoError(t, err)

	assert.Equal(t, e1, e2)
	assert.Equal(t, r1, r2)
}

func TestPatternExtractor_WithRules(t *testing.T) {
	custom := Rule{
		Name:       "env_var",
		EntityType: "ENV_VAR",
		Pattern:    regexp.MustCompile(`\$([A-Z][A-Z0-9_]+)`),
		NameGroup:  1,
	}
	p := New(
		WithRules(custom),
		WithRelations(RelationRule{FromType: domain.EntityTypeAPIEndpoint, ToType: "ENV_VAR", Relation: "USES"}),
	)

	entities, rels, err := p.Extract(context.Background(), "d", "s", "GET /config reads $API_TOKEN")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "API_TOKEN", entities[1].Name)
	assert.Equal(t, "$API_TOKEN", entities[1].Description)

	require.Len(t, rels, 1)
	assert.Equal(t, "USES", rels[0].Type)
}

func TestPatternExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New().Extract(ctx, "d", "s", "GET /a")
	assert.ErrorIs(t, err, context.Canceled)
}
