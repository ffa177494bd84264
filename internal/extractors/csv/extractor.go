// Package csv provides an Extractor for delimited tabular files.
// Rows are grouped into sections so the chunker keeps each group intact.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultRowsPerSection is the number of data rows per section.
const DefaultRowsPerSection = 10

const typeTSV = "text/tab-separated-values"

// Extractor handles CSV and TSV documents.
type Extractor struct {
	rowsPerSection int
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRowsPerSection sets how many data rows are grouped into one section.
func WithRowsPerSection(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.rowsPerSection = n
		}
	}
}

// New creates a new CSV extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{rowsPerSection: DefaultRowsPerSection}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "csv"
}

// SupportedTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedTypes() []string {
	return []string{"text/csv", "application/csv", typeTSV}
}

// Extract renders the table as sections of "column: value" rows.
// The first record is treated as the header.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	reader := csv.NewReader(bytes.NewReader(raw.Data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if raw.Type == typeTSV {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("csv: parsing %s: %w", raw.DisplayName(), err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return strings.Join(header, " | "), nil
	}

	var out strings.Builder
	for start := 0; start < len(rows); start += e.rowsPerSection {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		end := start + e.rowsPerSection
		if end > len(rows) {
			end = len(rows)
		}

		out.WriteString(chunker.SectionHeader(fmt.Sprintf("rows %d-%d", start+1, end)))
		out.WriteString("\n")
		for _, row := range rows[start:end] {
			out.WriteString(formatRow(header, row))
			out.WriteString("\n")
		}
	}

	return strings.TrimSpace(out.String()), nil
}

// formatRow pairs each value with its column name.
// Extra values beyond the header are labelled by position.
func formatRow(header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, v := range row {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		col := fmt.Sprintf("column%d", i+1)
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			col = strings.TrimSpace(header[i])
		}
		parts = append(parts, col+": "+v)
	}
	return strings.Join(parts, " | ")
}
