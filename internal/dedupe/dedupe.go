// Package dedupe flags transactions that are structurally identical.
package dedupe

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// Key is the composite identity of a transaction:
// date | lower(trim(description)) | debit | credit | reference.
func Key(t domain.Transaction) string {
	return strings.Join([]string{
		t.Date,
		strings.ToLower(strings.TrimSpace(t.Description)),
		decimal.NewFromFloat(t.Debit).String(),
		decimal.NewFromFloat(t.Credit).String(),
		strings.TrimSpace(t.Reference),
	}, "|")
}

// Groups returns the indexes of every colliding group, ordered by first occurrence.
// Unique transactions do not appear.
func Groups(txs []domain.Transaction) [][]int {
	byKey := make(map[string][]int, len(txs))
	order := make([]string, 0, len(txs))
	for i, t := range txs {
		k := Key(t)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], i)
	}

	var groups [][]int
	for _, k := range order {
		if idx := byKey[k]; len(idx) > 1 {
			groups = append(groups, idx)
		}
	}
	return groups
}

// Mark flags every member of a colliding group, not only the later copies.
func Mark(txs []domain.Transaction) []bool {
	flags := make([]bool, len(txs))
	for _, g := range Groups(txs) {
		for _, i := range g {
			flags[i] = true
		}
	}
	return flags
}

// Collapse keeps the first transaction of each group and preserves order.
func Collapse(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[string]bool, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		k := Key(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
