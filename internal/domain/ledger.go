package domain

import (
	"fmt"
	"strings"
)

// VoucherType is a Tally voucher type name.
type VoucherType string

const (
	VoucherPayment VoucherType = "Payment"
	VoucherReceipt VoucherType = "Receipt"
	VoucherContra  VoucherType = "Contra"
)

// ParseVoucherType accepts a voucher type name in any case.
// An empty string yields an empty type (no override).
func ParseVoucherType(s string) (VoucherType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "payment":
		return VoucherPayment, nil
	case "receipt":
		return VoucherReceipt, nil
	case "contra":
		return VoucherContra, nil
	default:
		return "", fmt.Errorf("ParseVoucherType: unknown voucher type %q", s)
	}
}

// LedgerRule maps transactions whose description contains any keyword to a
// counterparty ledger, optionally forcing the voucher type.
type LedgerRule struct {
	Keywords    []string    `json:"keywords" yaml:"keywords"`
	Ledger      string      `json:"ledger" yaml:"ledger"`
	VoucherType VoucherType `json:"voucherType,omitempty" yaml:"voucher_type"`
}

// Matches reports whether any keyword is a case-insensitive substring of description.
func (r LedgerRule) Matches(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// ExportOptions is supplied per export call and never persisted.
type ExportOptions struct {
	BankLedger     string       `json:"bankLedger" yaml:"bank_ledger"`
	CompanyName    string       `json:"companyName" yaml:"company_name"`
	SuspenseLedger string       `json:"suspenseLedger" yaml:"suspense_ledger"`
	Rules          []LedgerRule `json:"rules" yaml:"rules"`
}

const (
	DefaultBankLedger     = "Bank Account"
	DefaultCompanyName    = "My Company"
	DefaultSuspenseLedger = "Suspense"
)

// WithDefaults fills empty ledger and company names.
func (o ExportOptions) WithDefaults() ExportOptions {
	if strings.TrimSpace(o.BankLedger) == "" {
		o.BankLedger = DefaultBankLedger
	}
	if strings.TrimSpace(o.CompanyName) == "" {
		o.CompanyName = DefaultCompanyName
	}
	if strings.TrimSpace(o.SuspenseLedger) == "" {
		o.SuspenseLedger = DefaultSuspenseLedger
	}
	return o
}

// Validate checks every rule has a ledger, at least one keyword and a known voucher type.
func (o ExportOptions) Validate() error {
	for i, r := range o.Rules {
		if strings.TrimSpace(r.Ledger) == "" {
			return fmt.Errorf("rule %d: ledger is required", i+1)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %d: at least one keyword is required", i+1)
		}
		if _, err := ParseVoucherType(string(r.VoucherType)); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return nil
}
