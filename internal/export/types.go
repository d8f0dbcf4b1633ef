// Package export renders a project snapshot to docx or pptx.
package export

import (
	"errors"
	"strings"

	"ai-doc-authoring/internal/domain"
)

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	ErrUnsupportedFormat = errors.New("export format not supported")
	// ErrPandocMissing indicates the pandoc binary is not installed.
	ErrPandocMissing = errors.New("export dependency pandoc missing")
)

func mimeType(format domain.DocType) string {
	if format == domain.DocTypePptx {
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// sanitizeFilename keeps letters, digits, dash and underscore; spaces become underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		case r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	result := b.String()
	if len(result) > 80 {
		result = result[:80]
	}
	if result == "" {
		result = "document"
	}
	return result
}
