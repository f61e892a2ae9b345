// Package voucher maps transactions to Tally vouchers and renders the import envelope.
package voucher

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// selfTransfer spots moves between the account holder's own accounts.
var selfTransfer = regexp.MustCompile(`(?i)\b(self|own\s+(account|acct|a/c))\b`)

// LedgerEntry is one side of a voucher. Amount is signed: the debited
// ledger is negative and the credited ledger positive.
type LedgerEntry struct {
	Ledger string
	Amount decimal.Decimal
}

// IsDeemedPositive is Tally's flag for the debited side.
func (e LedgerEntry) IsDeemedPositive() bool {
	return e.Amount.IsNegative()
}

// Voucher is one double-entry record derived from one transaction.
type Voucher struct {
	Number        int
	Type          domain.VoucherType
	Date          string // YYYYMMDD
	Narration     string
	Counterparty  LedgerEntry
	Bank          LedgerEntry
	TransactionID string
}

// Entries returns the counterparty line followed by the bank line.
func (v Voucher) Entries() []LedgerEntry {
	return []LedgerEntry{v.Counterparty, v.Bank}
}

// Build turns transactions into numbered vouchers. Transactions that move no
// money are skipped and do not consume a voucher number.
func Build(txs []domain.Transaction, opts domain.ExportOptions) []Voucher {
	opts = opts.WithDefaults()
	vouchers := make([]Voucher, 0, len(txs))

	for _, t := range txs {
		amount := decimal.NewFromFloat(t.Amount()).Round(2)
		if !amount.IsPositive() {
			continue
		}

		vchType, ledger := classify(t, opts)

		v := Voucher{
			Number:        len(vouchers) + 1,
			Type:          vchType,
			Date:          strings.ReplaceAll(t.Date, "-", ""),
			Narration:     Narration(t),
			TransactionID: t.ID,
		}
		if t.IsOutflow() {
			v.Counterparty = LedgerEntry{Ledger: ledger, Amount: amount.Neg()}
			v.Bank = LedgerEntry{Ledger: opts.BankLedger, Amount: amount}
		} else {
			v.Counterparty = LedgerEntry{Ledger: ledger, Amount: amount}
			v.Bank = LedgerEntry{Ledger: opts.BankLedger, Amount: amount.Neg()}
		}
		vouchers = append(vouchers, v)
	}
	return vouchers
}

// classify picks the voucher type and counterparty ledger. The first
// matching rule overrides the ledger and, when set, the type.
func classify(t domain.Transaction, opts domain.ExportOptions) (domain.VoucherType, string) {
	vchType := DefaultType(t)
	ledger := opts.SuspenseLedger

	for _, r := range opts.Rules {
		if !r.Matches(t.Description) {
			continue
		}
		ledger = r.Ledger
		if forced, err := domain.ParseVoucherType(string(r.VoucherType)); err == nil && forced != "" {
			vchType = forced
		}
		break
	}
	return vchType, ledger
}

// DefaultType is the voucher type before any rule applies.
func DefaultType(t domain.Transaction) domain.VoucherType {
	switch {
	case selfTransfer.MatchString(t.Description):
		return domain.VoucherContra
	case t.Debit > 0:
		return domain.VoucherPayment
	default:
		return domain.VoucherReceipt
	}
}

// Narration is the description plus the reference when there is one.
func Narration(t domain.Transaction) string {
	ref := strings.TrimSpace(t.Reference)
	if ref == "" {
		return t.Description
	}
	return t.Description + " | Ref: " + ref
}
