package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor is registered for a document type.
	// The registry degrades to placeholder text instead of returning it to callers.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrExtraction indicates an extractor adapter failed on corrupt input.
	// Ingestion of that document aborts without touching the store.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding service was unreachable, timed out,
	// or rejected the input. It signals an infrastructure problem rather than
	// a bad document.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDanglingRelationship indicates a relationship endpoint does not
	// reference an entity in the store or in the same commit.
	ErrDanglingRelationship = errors.New("relationship references unknown entity")

	// ErrDuplicateID indicates an id collides with one already in the store.
	ErrDuplicateID = errors.New("duplicate id")
)
