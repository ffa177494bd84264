// Package chunker provides a fixed-size text chunker with section awareness.
package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// sectionMarker matches the "=== title ===" lines emitted by tabular extractors.
var sectionMarker = regexp.MustCompile(`(?m)^=== (.+?) ===[ \t]*$`)

// SectionHeader formats a section marker line recognised by the chunker.
func SectionHeader(title string) string {
	return "=== " + title + " ==="
}

// Processor splits text into overlapping fixed-size windows, or into one
// window per section for structured content.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the chunker name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured window overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits the text into chunks.
// Text containing section markers yields one chunk per section, hard-split
// at the window boundary; other text yields overlapping windows.
func (p *Processor) Chunk(ctx context.Context, docID, source, text string) ([]domain.TextChunk, error) {
	text = normalise(text)
	if text == "" {
		return nil, nil
	}

	if sectionMarker.MatchString(text) {
		return p.chunkSections(ctx, docID, source, text)
	}

	windows := p.windows([]rune(text), p.overlap)
	chunks := make([]domain.TextChunk, 0, len(windows))
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = appendChunk(chunks, docID, source, w, domain.ChunkTypeText, "")
	}
	return chunks, nil
}

// chunkSections emits one chunk per section; oversized sections are split
// without overlap.
func (p *Processor) chunkSections(ctx context.Context, docID, source, text string) ([]domain.TextChunk, error) {
	var chunks []domain.TextChunk

	locs := sectionMarker.FindAllStringSubmatchIndex(text, -1)

	// Text before the first marker is a section of its own.
	if preamble := strings.TrimSpace(text[:locs[0][0]]); preamble != "" {
		for _, w := range p.windows([]rune(preamble), 0) {
			chunks = appendChunk(chunks, docID, source, w, domain.ChunkTypeTableSection, "")
		}
	}

	for i, loc := range locs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		title := text[loc[2]:loc[3]]
		section := strings.TrimSpace(text[loc[0]:end])

		for _, w := range p.windows([]rune(section), 0) {
			chunks = appendChunk(chunks, docID, source, w, domain.ChunkTypeTableSection, title)
		}
	}

	return chunks, nil
}

// windows cuts runes into windows of chunkSize advancing by chunkSize-overlap.
func (p *Processor) windows(runes []rune, overlap int) []string {
	step := p.chunkSize - overlap
	if step <= 0 {
		step = p.chunkSize
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + p.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))

		// The tail is already covered by this window
		if end == len(runes) {
			break
		}
	}
	return out
}

// appendChunk adds a chunk unless the window is blank.
func appendChunk(chunks []domain.TextChunk, docID, source, content, chunkType, section string) []domain.TextChunk {
	if strings.TrimSpace(content) == "" {
		return chunks
	}

	metadata := map[string]any{
		domain.PropDocID: docID,
		"position":       len(chunks),
	}
	if section != "" {
		metadata["section"] = section
	}

	return append(chunks, domain.TextChunk{
		ID:        "chk-" + uuid.New().String(),
		Content:   content,
		Source:    source,
		ChunkType: chunkType,
		Metadata:  metadata,
	})
}

// normalise unifies line endings and trims surrounding whitespace.
func normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
