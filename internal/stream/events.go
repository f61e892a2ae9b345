// Package stream defines the progress protocol and its NDJSON codec.
package stream

import "github.com/vhsolanki8600/bank-to-tally/internal/domain"

// Wire discriminators.
const (
	TypeProgress     = "progress"
	TypeTransactions = "transactions"
	TypeComplete     = "complete"
	TypeError        = "error"
)

// Event is one of Progress, Transactions, Complete or Error.
// The unexported marker keeps the set closed.
type Event interface {
	Type() string
	isEvent()
}

// Progress announces work on a chunk or a wait.
type Progress struct {
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Transactions carries the records found in a single chunk.
type Transactions struct {
	Chunk        int                  `json:"chunk"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Complete ends a successful run.
type Complete struct {
	Warnings []string `json:"warnings"`
	BankName string   `json:"bankName,omitempty"`
}

// Error ends a run that could not start or could not continue.
type Error struct {
	Message string `json:"message"`
}

func (Progress) Type() string     { return TypeProgress }
func (Transactions) Type() string { return TypeTransactions }
func (Complete) Type() string     { return TypeComplete }
func (Error) Type() string        { return TypeError }

func (Progress) isEvent()     {}
func (Transactions) isEvent() {}
func (Complete) isEvent()     {}
func (Error) isEvent()        {}

// IsTerminal reports whether no event may follow e.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case Complete, Error:
		return true
	}
	return false
}
