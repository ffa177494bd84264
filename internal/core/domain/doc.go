// Package domain defines the core business entities for the Sercha
// knowledge engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entity: A typed, named knowledge item extracted from text
//   - Relationship: A typed directed edge between two entities
//   - TextChunk: A bounded window of text used for retrieval
//   - DocumentRecord: Registry entry for one ingested document
//   - RetrievalResult: The answer to a query, with citations and confidence
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
