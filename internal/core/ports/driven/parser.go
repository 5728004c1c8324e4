package driven

import (
	"context"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

// ParsedDocument is the parser's output for one source file.
type ParsedDocument struct {
	// Content is the extracted text. May be empty for image-only PDFs.
	Content string

	// Pages is the page count reported by the parser, at least 1.
	Pages int

	// Grounding maps element ids to page/box hints. May be nil.
	Grounding domain.Grounding
}

// Parser extracts text and page grounding from raw document bytes.
type Parser interface {
	// Parse extracts text from the given file content. The filename is
	// passed through for format detection by the service.
	Parse(ctx context.Context, content []byte, filename string) (*ParsedDocument, error)

	// Close releases any held connections.
	Close() error
}
