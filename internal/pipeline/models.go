package pipeline

import (
	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// ExtractRequest is one chunk handed to the extraction capability.
type ExtractRequest struct {
	DocumentName string
	Chunk        chunker.Chunk
	TotalChunks  int
	Payload      document.Payload
}

// Result is the synchronous outcome of ExtractOnce.
type Result struct {
	Transactions []domain.Transaction `json:"transactions"`
	BankName     string               `json:"bankName,omitempty"`
	Warnings     []string             `json:"warnings"`
}

// RunOutcome summarises a finished run for the audit trail.
type RunOutcome struct {
	Transactions int
	Warnings     []string
	Err          error
}
