// Package knowledge provides a pattern-based KnowledgeExtractor.
//
// Entities are found by regular-expression rules; relationships are derived
// from entity types within one document, without parsing containment.
// Output is deterministic apart from the generated ids.
package knowledge
