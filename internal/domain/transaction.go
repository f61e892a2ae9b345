package domain

// Transaction is one normalized statement line.
// Exactly one of Debit and Credit is expected to be non-zero; rows where both
// are zero never leave the normalizer, rows where both are set are kept as-is.
type Transaction struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"` // YYYY-MM-DD once normalized
	Description string   `json:"description"`
	Reference   string   `json:"reference,omitempty"`
	Debit       float64  `json:"debit"`
	Credit      float64  `json:"credit"`
	Balance     *float64 `json:"balance,omitempty"` // informational only
	Currency    string   `json:"currency"`
	BankName    string   `json:"bankName,omitempty"`
}

// IsOutflow reports whether money left the account.
func (t Transaction) IsOutflow() bool {
	return t.Debit > 0
}

// Amount returns the magnitude moved by the transaction.
// Debit wins when both sides are populated.
func (t Transaction) Amount() float64 {
	if t.Debit > 0 {
		return t.Debit
	}
	return t.Credit
}

// IsWellFormed reports whether exactly one side of the pair is non-zero.
func (t Transaction) IsWellFormed() bool {
	return (t.Debit > 0) != (t.Credit > 0)
}
