package extractors

import (
	"github.com/custodia-labs/sercha-rag/internal/extractors/csv"
	"github.com/custodia-labs/sercha-rag/internal/extractors/docx"
	"github.com/custodia-labs/sercha-rag/internal/extractors/eml"
	"github.com/custodia-labs/sercha-rag/internal/extractors/html"
	"github.com/custodia-labs/sercha-rag/internal/extractors/markdown"
	"github.com/custodia-labs/sercha-rag/internal/extractors/plaintext"
)

// NewDefaultRegistry returns a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	r.Register(csv.New())
	return r
}
