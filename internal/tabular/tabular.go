// Package tabular maps CSV and spreadsheet statement exports onto
// transactions by recognising their header row.
package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
)

var (
	ErrNoHeader          = errors.New("no transaction header row found")
	ErrUnsupportedFormat = errors.New("unsupported tabular format")
)

// headerScanRows bounds how far into a file the header may appear; bank
// exports usually open with account details.
const headerScanRows = 20

// columnSynonyms maps normalizer keys to compacted header spellings.
var columnSynonyms = map[string][]string{
	"date":        {"date", "txndate", "transactiondate", "trandate", "valuedate", "postingdate", "valuedt", "txndt"},
	"description": {"description", "narration", "particulars", "details", "remarks", "transactiondetails", "transactionremarks", "desc"},
	"reference":   {"reference", "refno", "ref", "chqrefno", "chequeno", "chqno", "chequenumber", "referenceno", "utr", "instrumentid"},
	"debit":       {"debit", "debitamount", "debitamt", "withdrawal", "withdrawals", "withdrawalamt", "withdrawalamount", "paidout", "dr"},
	"credit":      {"credit", "creditamount", "creditamt", "deposit", "deposits", "depositamt", "depositamount", "paidin", "cr"},
	"amount":      {"amount", "amt", "transactionamount", "txnamount"},
	"type":        {"type", "drcr", "crdr", "transactiontype", "txntype"},
	"balance":     {"balance", "closingbalance", "runningbalance", "availablebalance", "bal"},
	"currency":    {"currency", "ccy", "currencycode"},
}

var synonymIndex = func() map[string]string {
	idx := make(map[string]string)
	for key, names := range columnSynonyms {
		for _, n := range names {
			idx[n] = key
		}
	}
	return idx
}()

// Result is the outcome of parsing one tabular file.
type Result struct {
	Transactions []domain.Transaction `json:"transactions"`
	// HeaderRow is the 1-based row the header was found on.
	HeaderRow int `json:"headerRow"`
	Dropped   int `json:"dropped"`
}

// Parse picks the reader from the file extension.
func Parse(name string, data []byte, n *normalize.Normalizer, bankName string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ParseCSV(bytes.NewReader(data), n, bankName)
	case ".xlsx", ".xlsm":
		return ParseXLSX(bytes.NewReader(data), n, bankName)
	default:
		return nil, fmt.Errorf("Parse: %s: %w", name, ErrUnsupportedFormat)
	}
}

// compactHeader lowercases a header cell and drops everything but letters and digits.
func compactHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchColumn resolves a header cell, tolerating a trailing currency code
// such as "Withdrawal Amount (INR)".
func matchColumn(cell string) (string, bool) {
	h := compactHeader(cell)
	if h == "" {
		return "", false
	}
	if key, ok := synonymIndex[h]; ok {
		return key, true
	}
	if len(h) > 3 {
		if key, ok := synonymIndex[h[:len(h)-3]]; ok && key != "currency" && isCurrencySuffix(h[len(h)-3:]) {
			return key, true
		}
	}
	return "", false
}

func isCurrencySuffix(s string) bool {
	switch s {
	case "inr", "usd", "eur", "gbp", "aed", "sgd":
		return true
	}
	return false
}

// headerColumns maps column positions to normalizer keys. The first column
// claiming a key wins.
func headerColumns(row []string) map[int]string {
	cols := make(map[int]string)
	seen := make(map[string]bool)
	for i, cell := range row {
		key, ok := matchColumn(cell)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		cols[i] = key
	}
	return cols
}

// isHeader requires a date column and somewhere to read money from.
func isHeader(cols map[int]string) bool {
	var date, money bool
	for _, key := range cols {
		switch key {
		case "date":
			date = true
		case "debit", "credit", "amount":
			money = true
		}
	}
	return date && money
}

// mapRows finds the header and turns the rows below it into transactions.
func mapRows(rows [][]string, n *normalize.Normalizer, bankName string) (*Result, error) {
	headerAt := -1
	var cols map[int]string
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		c := headerColumns(rows[i])
		if isHeader(c) {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	var candidates []map[string]any
	for _, row := range rows[headerAt+1:] {
		candidate := make(map[string]any, len(cols))
		for i, key := range cols {
			if i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				candidate[key] = v
			}
		}
		if len(candidate) == 0 {
			continue
		}
		candidates = append(candidates, candidate)
	}

	txs, dropped := n.NormalizeAll(candidates, bankName)
	return &Result{Transactions: txs, HeaderRow: headerAt + 1, Dropped: dropped}, nil
}
