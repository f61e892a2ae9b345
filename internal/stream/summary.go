package stream

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// Summary folds a run's events into final totals, keyed by chunk index so a
// repeated chunk replaces rather than adds.
type Summary struct {
	byChunk   map[int][]domain.Transaction
	Warnings  []string
	BankName  string
	Err       string
	Completed bool
	Progress  Progress
}

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{byChunk: map[int][]domain.Transaction{}}
}

// Add folds one event into the summary.
func (s *Summary) Add(ev Event) {
	switch e := ev.(type) {
	case Progress:
		s.Progress = e
	case Transactions:
		s.byChunk[e.Chunk] = e.Transactions
	case Complete:
		s.Completed = true
		s.Warnings = e.Warnings
		if e.BankName != "" {
			s.BankName = e.BankName
		}
	case Error:
		s.Err = e.Message
	}
}

// Done reports whether a terminal event was seen.
func (s *Summary) Done() bool {
	return s.Completed || s.Err != ""
}

// Transactions returns every transaction in chunk order.
func (s *Summary) Transactions() []domain.Transaction {
	chunks := make([]int, 0, len(s.byChunk))
	for c := range s.byChunk {
		chunks = append(chunks, c)
	}
	sort.Ints(chunks)

	out := []domain.Transaction{}
	for _, c := range chunks {
		out = append(out, s.byChunk[c]...)
	}
	return out
}

// ChunkCount returns how many transactions a chunk produced.
func (s *Summary) ChunkCount(chunk int) int {
	return len(s.byChunk[chunk])
}

// Collect drains a stream into a Summary.
func Collect(ctx context.Context, r io.Reader) (*Summary, error) {
	dec := NewDecoder(ctx, r)
	sum := NewSummary()
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, err
		}
		sum.Add(ev)
	}
}
