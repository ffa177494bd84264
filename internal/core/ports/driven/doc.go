// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - ExtractorRegistry: Converts raw document bytes into text
//   - Chunker: Splits text into retrieval windows
//   - KnowledgeExtractor: Derives entities and relationships from text
//   - KnowledgeStore: Holds entities, relationships, chunks and embeddings
//   - EmbeddingService: Generates dense vectors for chunks, entities and queries
//
// # Optional Interfaces
//
//   - ConfigStore: Application configuration. Defaults are used without it.
//   - AIConfigValidator: Pings an embedding provider before it is saved.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or chunker package
package driven
