package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Extractor converts a document's raw bytes into a linear text stream.
// Each extractor handles specific document types (MIME types).
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// SupportedTypes returns the MIME types this extractor handles.
	SupportedTypes() []string

	// Extract returns the best-effort text of the document.
	// It returns an error only for truly corrupt input.
	Extract(ctx context.Context, raw *domain.RawContent) (string, error)
}

// ExtractorRegistry is the capability registry mapping document types to
// extractors. A registry miss is a normal outcome handled with placeholder
// text, never an error.
type ExtractorRegistry interface {
	// Register adds an extractor for all of its supported types.
	Register(extractor Extractor)

	// DetectType resolves the document type from the declared type,
	// the file extension, or the content itself.
	DetectType(raw *domain.RawContent, declared string) string

	// Extract returns the document text or a placeholder for unsupported types.
	// Errors from the extractor itself are wrapped as domain.ErrExtraction.
	Extract(ctx context.Context, raw *domain.RawContent) (string, error)

	// SupportedTypes returns all types with a registered extractor.
	SupportedTypes() []string
}
