// Package document loads statements and cuts them into page-range payloads.
package document

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
)

var (
	ErrEmptyDocument    = errors.New("document is empty")
	ErrUnsupportedType  = errors.New("unsupported document type")
	ErrCorruptDocument  = errors.New("document could not be read")
	ErrChunkOutOfBounds = errors.New("chunk is outside the document")
)

const (
	MIMEPDF  = "application/pdf"
	MIMEText = "text/plain"
)

// Payload is what one extraction call receives: either binary pages or plain text.
type Payload struct {
	MIMEType  string
	Data      []byte
	Text      string
	FirstPage int // original page range, kept for diagnostics
	LastPage  int
}

// IsText reports whether the payload carries extracted text instead of bytes.
func (p Payload) IsText() bool {
	return p.MIMEType == MIMEText
}

// Document is a paginated source that can be cut into self-contained chunks.
type Document interface {
	Name() string
	MIMEType() string
	PageCount() int
	Slice(c chunker.Chunk) (Payload, error)
}

// Open sniffs data and returns the matching Document.
func Open(name string, data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("Open: %s: %w", name, ErrEmptyDocument)
	}

	mime := DetectType(name, data)
	switch {
	case mime == MIMEPDF:
		return NewPDF(name, data)
	case strings.HasPrefix(mime, "image/"):
		return NewImage(name, mime, data), nil
	case mime == MIMEText:
		return NewText(name, string(data)), nil
	default:
		return nil, fmt.Errorf("Open: %s: %w (%s)", name, ErrUnsupportedType, mime)
	}
}

// DetectType sniffs content first and falls back to the file extension.
func DetectType(name string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	switch sniffed {
	case MIMEPDF, "image/png", "image/jpeg", "image/gif", "image/webp", MIMEText:
		return sniffed
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".txt":
		return MIMEText
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	}
	return sniffed
}

func checkBounds(c chunker.Chunk, pages int) error {
	if c.FirstPage < 1 || c.LastPage > pages || c.FirstPage > c.LastPage {
		return fmt.Errorf("%w: pages %s of %d", ErrChunkOutOfBounds, c.Label(), pages)
	}
	return nil
}
