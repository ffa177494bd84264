package knowledge

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure PatternExtractor implements the interface.
var _ driven.KnowledgeExtractor = (*PatternExtractor)(nil)

// PatternExtractor extracts entities with regular-expression rules.
type PatternExtractor struct {
	rules     []Rule
	relations []RelationRule
	newID     func(prefix string) string
}

// Option configures the extractor.
type Option func(*PatternExtractor)

// WithRules appends additional entity rules.
func WithRules(rules ...Rule) Option {
	return func(p *PatternExtractor) {
		p.rules = append(p.rules, rules...)
	}
}

// WithRelations appends additional relationship rules.
func WithRelations(relations ...RelationRule) Option {
	return func(p *PatternExtractor) {
		p.relations = append(p.relations, relations...)
	}
}

// WithIDGenerator replaces the id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(p *PatternExtractor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates an extractor with the default rules plus any supplied options.
func New(opts ...Option) *PatternExtractor {
	p := &PatternExtractor{
		rules:     DefaultRules(),
		relations: DefaultRelations(),
		newID: func(prefix string) string {
			return prefix + uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// match is one rule hit with its position in the text.
type match struct {
	rule  *Rule
	start int
	parts []string
}

// Extract returns one entity per rule match, in text order, and the
// relationships derived between them.
func (p *PatternExtractor) Extract(ctx context.Context, docID, source, text string) ([]domain.Entity, []domain.Relationship, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	var matches []match
	for i := range p.rules {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rule := &p.rules[i]
		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			matches = append(matches, match{
				rule:  rule,
				start: loc[0],
				parts: submatches(text, loc),
			})
		}
	}

	// Text order; rule order breaks ties
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	entities := make([]domain.Entity, 0, len(matches))
	for _, m := range matches {
		entities = append(entities, p.entity(m, docID, source))
	}

	return entities, p.relate(entities, docID, source), nil
}

// entity builds the entity for one match.
func (p *PatternExtractor) entity(m match, docID, source string) domain.Entity {
	name := m.parts[0]
	if m.rule.NameGroup > 0 && m.rule.NameGroup < len(m.parts) {
		name = m.parts[m.rule.NameGroup]
	}

	description := m.parts[0]
	if m.rule.Describe != nil {
		description = m.rule.Describe(m.parts)
	}

	return domain.Entity{
		ID:          p.newID("ent-"),
		Name:        name,
		Type:        m.rule.EntityType,
		Description: description,
		Properties: map[string]any{
			domain.PropDocID:  docID,
			domain.PropSource: source,
			domain.PropRaw:    m.parts[0],
		},
	}
}

// relate applies the relationship rules to every ordered entity pair.
func (p *PatternExtractor) relate(entities []domain.Entity, docID, source string) []domain.Relationship {
	var rels []domain.Relationship
	for _, rr := range p.relations {
		for i := range entities {
			from := &entities[i]
			if from.Type != rr.FromType {
				continue
			}
			for j := range entities {
				to := &entities[j]
				if i == j || to.Type != rr.ToType {
					continue
				}
				rels = append(rels, domain.Relationship{
					ID:          p.newID("rel-"),
					SourceID:    from.ID,
					TargetID:    to.ID,
					Type:        rr.Relation,
					Description: from.Name + " " + strings.ToLower(rr.Relation) + " " + to.Name,
					Properties: map[string]any{
						domain.PropDocID:  docID,
						domain.PropSource: source,
					},
				})
			}
		}
	}
	return rels
}

// submatches converts an index slice into strings; missing groups are "".
func submatches(text string, loc []int) []string {
	parts := make([]string, len(loc)/2)
	for i := range parts {
		if s, e := loc[2*i], loc[2*i+1]; s >= 0 {
			parts[i] = text[s:e]
		}
	}
	return parts
}
