package extractors

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types with special handling in the registry.
const (
	TypePlainText = "text/plain"
	TypeMarkdown  = "text/markdown"
	TypeCSV       = "text/csv"
	TypeHTML      = "text/html"
	TypePDF       = "application/pdf"
	TypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeEML       = "message/rfc822"
	TypeOctet     = "application/octet-stream"
)

// aliases maps short declared type names to MIME types.
var aliases = map[string]string{
	"text":     TypePlainText,
	"txt":      TypePlainText,
	"plain":    TypePlainText,
	"md":       TypeMarkdown,
	"markdown": TypeMarkdown,
	"csv":      TypeCSV,
	"html":     TypeHTML,
	"htm":      TypeHTML,
	"pdf":      TypePDF,
	"docx":     TypeDOCX,
	"eml":      TypeEML,
	"email":    TypeEML,
	"json":     "application/json",
	"xml":      "application/xml",
	"yaml":     "text/yaml",
	"yml":      "text/yaml",
	"png":      "image/png",
	"jpg":      "image/jpeg",
	"jpeg":     "image/jpeg",
	"gif":      "image/gif",
	"webp":     "image/webp",
}

// extensions maps file extensions to MIME types.
// Extension lookup wins over content sniffing for text formats that
// sniff as text/plain.
var extensions = map[string]string{
	".txt":      TypePlainText,
	".text":     TypePlainText,
	".log":      TypePlainText,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".csv":      TypeCSV,
	".html":     TypeHTML,
	".htm":      TypeHTML,
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".eml":      TypeEML,
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".sql":      "text/x-sql",
	".sh":       "text/x-shellscript",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".webp":     "image/webp",
}

// NormaliseType resolves a declared type or alias to a bare MIME type.
// Unknown aliases are returned lowercased so the registry can report them.
func NormaliseType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if t == "" {
		return ""
	}
	if base, _, found := strings.Cut(t, ";"); found {
		t = strings.TrimSpace(base)
	}
	if strings.Contains(t, "/") {
		return t
	}
	if mime, ok := aliases[strings.TrimPrefix(t, ".")]; ok {
		return mime
	}
	return t
}

// TypeFromExtension returns the MIME type for a file name, or "".
func TypeFromExtension(name string) string {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Sniff detects the MIME type from content.
func Sniff(data []byte) string {
	mtype := mimetype.Detect(data).String()
	if base, _, found := strings.Cut(mtype, ";"); found {
		mtype = strings.TrimSpace(base)
	}
	return mtype
}
