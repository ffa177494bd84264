package knowledge

import (
	"regexp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Rule turns every match of a pattern into one entity.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// EntityType is the type assigned to matched entities.
	EntityType string

	// Pattern is matched against the whole document text.
	Pattern *regexp.Regexp

	// NameGroup selects the submatch used as the entity name; 0 is the whole match.
	NameGroup int

	// Describe builds the entity description from the full match and its submatches.
	// Nil uses the full match.
	Describe func(match []string) string
}

// RelationRule connects every entity of one type to every entity of another
// type found in the same document.
type RelationRule struct {
	FromType string
	ToType   string
	Relation string
}

// EndpointRule matches "VERB /path" mentions.
var EndpointRule = Rule{
	Name:       "api_endpoint",
	EntityType: domain.EntityTypeAPIEndpoint,
	Pattern:    regexp.MustCompile(`\b(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s+(/[^\s"'<>]*)`),
	Describe: func(m []string) string {
		return m[1] + " endpoint " + m[2]
	},
}

// ParameterRule matches "key: type" and "key: literal" mentions.
var ParameterRule = Rule{
	Name:       "parameter",
	EntityType: domain.EntityTypeParameter,
	Pattern: regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*:\s*` +
		`((?:string|integer|int|number|float|boolean|bool|array|object|true|false|null)\b|"[^"\n]*"|'[^'\n]*'|-?\d+(?:\.\d+)?)`),
	Describe: func(m []string) string {
		return "parameter " + m[1]
	},
}

// HasParameterRelation links endpoints to the parameters of their document.
var HasParameterRelation = RelationRule{
	FromType: domain.EntityTypeAPIEndpoint,
	ToType:   domain.EntityTypeParameter,
	Relation: domain.RelationHasParameter,
}

// DefaultRules returns the built-in entity rules.
func DefaultRules() []Rule {
	return []Rule{EndpointRule, ParameterRule}
}

// DefaultRelations returns the built-in relationship rules.
func DefaultRelations() []RelationRule {
	return []RelationRule{HasParameterRelation}
}
