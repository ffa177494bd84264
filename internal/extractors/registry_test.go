package extractors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// stubExtractor returns fixed output for tests.
type stubExtractor struct {
	types []string
	text  string
	err   error
}

func (s *stubExtractor) Name() string             { return "stub" }
func (s *stubExtractor) SupportedTypes() []string { return s.types }
func (s *stubExtractor) Extract(_ context.Context, _ *domain.RawContent) (string, error) {
	return s.text, s.err
}

func TestNormaliseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"pdf", TypePDF},
		{"MD", TypeMarkdown},
		{"markdown", TypeMarkdown},
		{".csv", TypeCSV},
		{"text/plain; charset=utf-8", TypePlainText},
		{"Application/JSON", "application/json"},
		{"weird", "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormaliseType(tt.in))
		})
	}
}

func TestRegistry_DetectType(t *testing.T) {
	r := NewRegistry()

	t.Run("declared wins", func(t *testing.T) {
		raw := &domain.RawContent{Path: "notes.txt"}
		assert.Equal(t, TypeMarkdown, r.DetectType(raw, "md"))
	})

	t.Run("extension", func(t *testing.T) {
		assert.Equal(t, TypeCSV, r.DetectType(&domain.RawContent{Path: "/tmp/users.CSV"}, ""))
		assert.Equal(t, TypeMarkdown, r.DetectType(&domain.RawContent{Name: "README.md"}, ""))
	})

	t.Run("sniffed", func(t *testing.T) {
		raw := &domain.RawContent{Data: []byte("%PDF-1.4\n%...")}
		assert.Equal(t, TypePDF, r.DetectType(raw, ""))

		raw = &domain.RawContent{Data: []byte("just some words")}
		assert.Equal(t, TypePlainText, r.DetectType(raw, ""))
	})
}

func TestRegistry_Extract_Registered(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/plain"}, text: "hello"})

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte("x"), Type: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestRegistry_Extract_TextFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/plain"}, text: "code"})

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte("x"), Type: "text/x-haskell"})
	require.NoError(t, err)
	assert.Equal(t, "code", got)
}

func TestRegistry_Extract_Unsupported(t *testing.T) {
	r := NewRegistry()

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte{1, 2}, Name: "blob.bin", Type: "application/x-thing"})
	require.NoError(t, err)
	assert.Equal(t, "unsupported document type application/x-thing: blob.bin", got)
}

func TestRegistry_Extract_DisabledCapability(t *testing.T) {
	r := NewRegistry()

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte("%PDF"), Name: "manual.pdf", Type: TypePDF})
	require.NoError(t, err)
	assert.Equal(t, "multimodal processing disabled: manual.pdf", got)

	got, err = r.Extract(context.Background(), &domain.RawContent{Data: []byte{0x89}, Name: "a.png", Type: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "multimodal processing disabled: a.png", got)
}

func TestRegistry_Register_ReenablesDisabledType(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{TypePDF}, text: "pdf text"})

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte("%PDF"), Type: TypePDF})
	require.NoError(t, err)
	assert.Equal(t, "pdf text", got)
}

func TestRegistry_Extract_Empty(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/plain"}, text: "   "})

	got, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte(" "), Name: "blank.txt", Type: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "empty document: blank.txt", got)
}

func TestRegistry_Extract_ExtractorError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/plain"}, err: errors.New("corrupt")})

	_, err := r.Extract(context.Background(), &domain.RawContent{Data: []byte("x"), Type: "text/plain"})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistry_Extract_ReadsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\nGET /health"), 0o600))

	r := NewDefaultRegistry()
	got, err := r.Extract(context.Background(), &domain.RawContent{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "Title\nGET /health", got)
}

func TestRegistry_Extract_MissingPath(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Extract(context.Background(), &domain.RawContent{Path: "/does/not/exist.txt"})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestNewDefaultRegistry_SupportedTypes(t *testing.T) {
	types := NewDefaultRegistry().SupportedTypes()

	for _, want := range []string{TypePlainText, TypeMarkdown, TypeCSV, TypeHTML, TypeDOCX, TypeEML} {
		assert.Contains(t, types, want)
	}
	assert.NotContains(t, types, TypePDF)
	assert.IsIncreasing(t, types)
}
