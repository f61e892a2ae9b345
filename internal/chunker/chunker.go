// Package chunker partitions paginated documents into bounded units of work.
package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidChunkSize is returned for a chunk size below one page.
var ErrInvalidChunkSize = errors.New("pages per chunk must be >= 1")

// Chunk is a 1-based, inclusive page range of a source document.
type Chunk struct {
	Index     int // 1-based sequence number
	FirstPage int // 1-based, inclusive
	LastPage  int // 1-based, inclusive
}

// Pages returns the number of pages in the chunk.
func (c Chunk) Pages() int {
	return c.LastPage - c.FirstPage + 1
}

// Label renders the page range as "3-4", or "5" for a single page.
func (c Chunk) Label() string {
	if c.FirstPage == c.LastPage {
		return fmt.Sprintf("%d", c.FirstPage)
	}
	return fmt.Sprintf("%d-%d", c.FirstPage, c.LastPage)
}

// Plan splits pageCount pages into ceil(pageCount/pagesPerChunk) chunks.
// Chunks never overlap; the last one may be shorter.
func Plan(pageCount, pagesPerChunk int) ([]Chunk, error) {
	if pagesPerChunk < 1 {
		return nil, fmt.Errorf("Plan: %w (got %d)", ErrInvalidChunkSize, pagesPerChunk)
	}
	if pageCount < 0 {
		return nil, fmt.Errorf("Plan: negative page count %d", pageCount)
	}

	chunks := make([]Chunk, 0, (pageCount+pagesPerChunk-1)/pagesPerChunk)
	for start := 0; start < pageCount; start += pagesPerChunk {
		end := min(start+pagesPerChunk, pageCount)
		chunks = append(chunks, Chunk{
			Index:     len(chunks) + 1,
			FirstPage: start + 1,
			LastPage:  end,
		})
	}
	return chunks, nil
}

// Whole returns a single chunk spanning every page.
func Whole(pageCount int) Chunk {
	return Chunk{Index: 1, FirstPage: 1, LastPage: max(pageCount, 1)}
}
