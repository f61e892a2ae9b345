// Package normalize turns loosely-typed statement rows into domain transactions.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// Candidate source keys, most specific first.
var (
	dateKeys        = []string{"date", "transactionDate", "transaction_date", "txnDate", "txn_date", "valueDate", "value_date", "postingDate"}
	descriptionKeys = []string{"description", "narration", "particulars", "details", "remarks", "transactionDetails", "transaction_details", "desc", "memo"}
	referenceKeys   = []string{"reference", "ref", "refNo", "ref_no", "referenceNumber", "reference_number", "chequeNo", "cheque_no", "chqNo", "utr"}
	debitKeys       = []string{"debit", "debitAmount", "debit_amount", "withdrawal", "withdrawals", "withdrawalAmount", "paidOut", "paid_out", "dr"}
	creditKeys      = []string{"credit", "creditAmount", "credit_amount", "deposit", "deposits", "depositAmount", "paidIn", "paid_in", "cr"}
	amountKeys      = []string{"amount", "transactionAmount", "transaction_amount", "value"}
	typeKeys        = []string{"type", "transactionType", "transaction_type", "drCr", "dr_cr", "direction", "crDr"}
	balanceKeys     = []string{"balance", "closingBalance", "closing_balance", "runningBalance", "running_balance", "balanceAfter", "balance_after"}
	currencyKeys    = []string{"currency", "currencyCode", "currency_code"}
)

var currencySymbols = map[string]string{
	"₹": "INR", "RS": "INR", "RS.": "INR",
	"$": "USD", "€": "EUR", "£": "GBP",
}

// Options configures defaults for fields the source leaves open.
type Options struct {
	DefaultCurrency string
	// UnknownDirection is applied to a single unsigned amount with no hint.
	UnknownDirection Direction
}

// Normalizer maps candidate rows to transactions. It holds no mutable state.
type Normalizer struct {
	opts  Options
	newID func() string
}

// New creates a Normalizer. An unknown default currency falls back to INR.
func New(opts Options) *Normalizer {
	opts.DefaultCurrency = strings.ToUpper(strings.TrimSpace(opts.DefaultCurrency))
	if money.GetCurrency(opts.DefaultCurrency) == nil {
		opts.DefaultCurrency = "INR"
	}
	return &Normalizer{opts: opts, newID: uuid.NewString}
}

// Normalize converts one candidate. ok is false when the row carries no date
// or no money movement and must be dropped.
func (n *Normalizer) Normalize(candidate map[string]any, bankName string) (domain.Transaction, bool) {
	date := NormalizeDate(firstString(candidate, dateKeys))
	if strings.TrimSpace(date) == "" {
		return domain.Transaction{}, false
	}

	debit := firstAmount(candidate, debitKeys)
	credit := firstAmount(candidate, creditKeys)
	if debit == 0 && credit == 0 {
		if raw, ok := firstValue(candidate, amountKeys); ok {
			debit, credit = AssignDirection(raw, firstString(candidate, typeKeys), n.opts.UnknownDirection)
		}
	}
	if debit == 0 && credit == 0 {
		return domain.Transaction{}, false
	}

	return domain.Transaction{
		ID:          n.newID(),
		Date:        date,
		Description: CleanText(firstString(candidate, descriptionKeys)),
		Reference:   CleanText(firstString(candidate, referenceKeys)),
		Debit:       debit,
		Credit:      credit,
		Balance:     optionalBalance(candidate, balanceKeys),
		Currency:    n.currency(firstString(candidate, currencyKeys)),
		BankName:    strings.TrimSpace(bankName),
	}, true
}

// NormalizeAll converts candidates in order and reports how many were dropped.
func (n *Normalizer) NormalizeAll(candidates []map[string]any, bankName string) ([]domain.Transaction, int) {
	out := make([]domain.Transaction, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		tx, ok := n.Normalize(c, bankName)
		if !ok {
			dropped++
			continue
		}
		out = append(out, tx)
	}
	return out, dropped
}

func (n *Normalizer) currency(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if mapped, ok := currencySymbols[code]; ok {
		code = mapped
	}
	if code != "" && money.GetCurrency(code) != nil {
		return code
	}
	return n.opts.DefaultCurrency
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// CleanText strips markup tags and control characters and collapses whitespace.
func CleanText(s string) string {
	s = markupTag.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func firstValue(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// firstString returns the first non-empty value among keys, rendering
// numbers (cheque numbers, serial dates) as plain text.
func firstString(m map[string]any, keys []string) string {
	v, ok := firstValue(m, keys)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return formatNumber(val)
	}
	return ""
}

func firstAmount(m map[string]any, keys []string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if value, _, _, parsed := amountValue(v); parsed && value != 0 {
			return value
		}
	}
	return 0
}

// optionalBalance keeps the sign; a trailing Dr marks an overdrawn balance.
func optionalBalance(m map[string]any, keys []string) *float64 {
	v, ok := firstValue(m, keys)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f
	case string:
		d, parsed := parseSigned(val)
		if !parsed {
			return nil
		}
		if drCrMarker(val) == "dr" && d.IsPositive() {
			d = d.Neg()
		}
		f := d.InexactFloat64()
		return &f
	}
	return nil
}
