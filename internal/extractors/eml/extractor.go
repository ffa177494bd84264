// Package eml provides an Extractor for RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles EML (email) documents.
type Extractor struct {
	html *html.Extractor
}

// New creates a new EML extractor.
func New() *Extractor {
	return &Extractor{html: html.New()}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "eml"
}

// SupportedTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedTypes() []string {
	return []string{"message/rfc822"}
}

// Extract renders the main headers followed by the message body.
// Plain text parts are preferred over HTML parts.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Data))
	if err != nil {
		return "", fmt.Errorf("eml: read message: %w", err)
	}

	body, err := e.extractBody(ctx, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			content.WriteString(key)
			content.WriteString(": ")
			content.WriteString(v)
			content.WriteString("\n")
		}
	}
	content.WriteString("\n")
	content.WriteString(body)

	return strings.TrimSpace(content.String()), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody returns the text of a single part or a multipart tree.
func (e *Extractor) extractBody(ctx context.Context, contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return e.extractMultipart(ctx, r, params["boundary"])
	}

	if strings.EqualFold(encoding, "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("eml: read body: %w", err)
	}

	if mediaType == "text/html" {
		return e.html.Extract(ctx, &domain.RawContent{Data: body})
	}
	return string(body), nil
}

// extractMultipart walks the parts, preferring text/plain over text/html.
func (e *Extractor) extractMultipart(ctx context.Context, r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("eml: read part: %w", err)
		}

		partType := part.Header.Get("Content-Type")
		mediaType, _, parseErr := mime.ParseMediaType(partType)
		if parseErr != nil {
			mediaType = "application/octet-stream"
		}

		// multipart.Reader already decodes quoted-printable parts
		text, err := e.extractBody(ctx, partType, "", part)
		part.Close()
		if err != nil {
			continue
		}

		switch {
		case mediaType == "text/plain", strings.HasPrefix(mediaType, "multipart/"):
			if text != "" {
				textParts = append(textParts, text)
			}
		case mediaType == "text/html":
			htmlParts = append(htmlParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}
