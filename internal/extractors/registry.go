package extractors

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
	disabled   map[string]string // type (or "major/*") -> capability name
}

// NewRegistry creates an empty registry with the optional multimodal
// capabilities (pdf, images) marked as disabled.
func NewRegistry() *Registry {
	r := &Registry{
		extractors: make(map[string]driven.Extractor),
		disabled:   make(map[string]string),
	}
	r.Disable(TypePDF, "pdf")
	r.Disable("image/*", "image")
	return r
}

// Register adds an extractor for all of its supported types.
// A later registration for the same type replaces the earlier one and
// re-enables a disabled type.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range e.SupportedTypes() {
		t = NormaliseType(t)
		r.extractors[t] = e
		delete(r.disabled, t)
	}
}

// Disable marks a type whose optional processing capability is absent.
// A pattern of the form "image/*" disables every subtype.
func (r *Registry) Disable(mimeType, capability string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disabled[NormaliseType(mimeType)] = capability
}

// DetectType resolves the document type from the declared type, then the
// file extension, then the content itself.
func (r *Registry) DetectType(raw *domain.RawContent, declared string) string {
	if t := NormaliseType(declared); t != "" {
		return t
	}
	if raw == nil {
		return TypeOctet
	}
	for _, name := range []string{raw.Path, raw.Name} {
		if t := TypeFromExtension(name); t != "" {
			return t
		}
	}
	return Sniff(raw.Data)
}

// Extract returns the text of a document.
// Unsupported or disabled types produce placeholder text instead of an error.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	name := raw.DisplayName()

	if len(raw.Data) == 0 && raw.Path != "" {
		data, err := os.ReadFile(raw.Path)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", domain.ErrExtraction, name, err)
		}
		raw.Data = data
	}

	if raw.Type == "" {
		raw.Type = r.DetectType(raw, "")
	}

	if capability, ok := r.disabledCapability(raw.Type); ok {
		logger.Debug("Extractor capability %q disabled for %s", capability, name)
		return "multimodal processing disabled: " + name, nil
	}

	e, ok := r.lookup(raw.Type)
	if !ok {
		logger.Debug("No extractor registered for %s (%s)", name, raw.Type)
		return fmt.Sprintf("unsupported document type %s: %s", raw.Type, name), nil
	}

	text, err := e.Extract(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s extractor on %s: %v", domain.ErrExtraction, e.Name(), name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "empty document: " + name, nil
	}

	logger.Debug("Extracted %d chars from %s using %s", len(text), name, e.Name())
	return text, nil
}

// SupportedTypes returns all types with a registered extractor, sorted.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// lookup finds an extractor by exact type, falling back to text/plain for
// unregistered text subtypes.
func (r *Registry) lookup(mimeType string) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.extractors[mimeType]; ok {
		return e, true
	}
	if strings.HasPrefix(mimeType, "text/") {
		e, ok := r.extractors[TypePlainText]
		return e, ok
	}
	return nil, false
}

func (r *Registry) disabledCapability(mimeType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.disabled[mimeType]; ok {
		return c, true
	}
	if major, _, found := strings.Cut(mimeType, "/"); found {
		if c, ok := r.disabled[major+"/*"]; ok {
			return c, true
		}
	}
	return "", false
}
