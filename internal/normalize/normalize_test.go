package normalize

import (
	"fmt"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"15-01-2024", "2024-01-15"},
		{"15.01.2024", "2024-01-15"},
		{"5/1/2024", "2024-01-05"},
		{" 05/01/2024 ", "2024-01-05"},
		{"15/01/24", "2024-01-15"},
		{"15/01/49", "2049-01-15"},
		{"15/01/50", "1950-01-15"},
		{"15/01/99", "1999-01-15"},
		{"05-Apr-2024", "2024-04-05"},
		{"5 apr 2024", "2024-04-05"},
		{"2024-01-15T10:00:00Z", "2024-01-15"},
		{"31/02/2024", "31/02/2024"},
		{"15/01-2024", "15/01-2024"},
		{"yesterday", "yesterday"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeDate(tt.in); got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	inputs := []string{"2024-01-15", "15/01/2024", "1-2-2023", "15.01.24", "05-Apr-2024", "garbage", "31/02/2024"}
	for _, in := range inputs {
		once := NormalizeDate(in)
		if twice := NormalizeDate(once); twice != once {
			t.Errorf("NormalizeDate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeDate_SeparatorsAgree(t *testing.T) {
	for day := 1; day <= 28; day++ {
		slash := NormalizeDate(fmt.Sprintf("%d/3/2023", day))
		dash := NormalizeDate(fmt.Sprintf("%d-3-2023", day))
		dot := NormalizeDate(fmt.Sprintf("%d.3.2023", day))
		if slash != dash || dash != dot {
			t.Errorf("day %d: slash %q dash %q dot %q differ", day, slash, dash, dot)
		}
		if !IsCanonicalDate(slash) {
			t.Errorf("day %d: %q is not canonical", day, slash)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,00,000", 100000},
		{"1,000,000.50", 1000000.5},
		{"-5000", 5000},
		{"5000 Cr", 5000},
		{"5000Dr", 5000},
		{"5,000.00 Dr.", 5000},
		{"₹ 1,23,456.78", 123456.78},
		{"Rs. 250", 250},
		{"INR 99.5", 99.5},
		{"$1,200", 1200},
		{"(750.25)", 750.25},
		{"+42", 42},
		{"abc", 0},
		{"", 0},
		{"--", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseAmount(tt.in); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAssignDirection(t *testing.T) {
	tests := []struct {
		name       string
		amount     any
		hint       string
		unknown    Direction
		wantDebit  float64
		wantCredit float64
	}{
		{"debit hint", 500.0, "DEBIT", DirectionCredit, 500, 0},
		{"dr hint", "500", "Dr", DirectionCredit, 500, 0},
		{"withdrawal hint", "1,200", "ATM withdrawal", DirectionCredit, 1200, 0},
		{"credit hint", 500.0, "Credit", DirectionDebit, 0, 500},
		{"deposit hint", "500", "cash deposit", DirectionDebit, 0, 500},
		{"credit hint beats negative sign", -500.0, "credit", DirectionCredit, 0, 500},
		{"negative number routes to debit", -320.0, "", DirectionCredit, 320, 0},
		{"negative string routes to debit", "-320.50", "", DirectionCredit, 320.5, 0},
		{"suffix dr", "900 Dr", "", DirectionCredit, 900, 0},
		{"suffix cr", "900 Cr", "", DirectionDebit, 0, 900},
		// Unsigned amount without a hint follows the configured policy.
		{"unknown defaults to credit", 75.0, "", DirectionCredit, 0, 75},
		{"unknown policy debit", 75.0, "", DirectionDebit, 75, 0},
		{"unrelated hint uses policy", 75.0, "UPI", DirectionCredit, 0, 75},
		{"zero amount", 0.0, "debit", DirectionCredit, 0, 0},
		{"invalid amount", "n/a", "debit", DirectionCredit, 0, 0},
		{"unsupported type", true, "debit", DirectionCredit, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debit, credit := AssignDirection(tt.amount, tt.hint, tt.unknown)
			if debit != tt.wantDebit || credit != tt.wantCredit {
				t.Errorf("AssignDirection(%v, %q) = (%v, %v), want (%v, %v)",
					tt.amount, tt.hint, debit, credit, tt.wantDebit, tt.wantCredit)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection("Debit"); !ok || d != DirectionDebit {
		t.Errorf("ParseDirection(Debit) = %v, %v", d, ok)
	}
	if d, ok := ParseDirection("credit"); !ok || d != DirectionCredit {
		t.Errorf("ParseDirection(credit) = %v, %v", d, ok)
	}
	if _, ok := ParseDirection("both"); ok {
		t.Error("ParseDirection(both) should fail")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  UPI/123   to   SHOP ", "UPI/123 to SHOP"},
		{"NEFT\tsalary\ncredit", "NEFT salary credit"},
		{"<b>ATM</b> withdrawal", "ATM withdrawal"},
		{"bell\x07char", "bell char"},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestNormalizer(unknown Direction) *Normalizer {
	n := New(Options{DefaultCurrency: "INR", UnknownDirection: unknown})
	seq := 0
	n.newID = func() string {
		seq++
		return fmt.Sprintf("tx-%d", seq)
	}
	return n
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	tx, ok := n.Normalize(map[string]any{
		"date":        "15/01/2024",
		"narration":   "  NEFT   salary ",
		"chequeNo":    123456.0,
		"withdrawal":  "",
		"deposit":     "45,000.00",
		"balance":     "1,20,000.00",
		"currency":    "₹",
		"unknown_key": "ignored",
	}, " HDFC Bank ")
	if !ok {
		t.Fatal("expected transaction to be kept")
	}

	if tx.ID != "tx-1" {
		t.Errorf("ID = %q, want tx-1", tx.ID)
	}
	if tx.Date != "2024-01-15" {
		t.Errorf("Date = %q", tx.Date)
	}
	if tx.Description != "NEFT salary" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.Reference != "123456" {
		t.Errorf("Reference = %q", tx.Reference)
	}
	if tx.Debit != 0 || tx.Credit != 45000 {
		t.Errorf("Debit/Credit = %v/%v, want 0/45000", tx.Debit, tx.Credit)
	}
	if tx.Balance == nil || *tx.Balance != 120000 {
		t.Errorf("Balance = %v, want 120000", tx.Balance)
	}
	if tx.Currency != "INR" {
		t.Errorf("Currency = %q, want INR", tx.Currency)
	}
	if tx.BankName != "HDFC Bank" {
		t.Errorf("BankName = %q", tx.BankName)
	}
}

func TestNormalizer_SingleAmountWithHint(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	tx, ok := n.Normalize(map[string]any{
		"date":        "2024-02-01",
		"description": "Card purchase",
		"amount":      1499.0,
		"type":        "DR",
	}, "")
	if !ok {
		t.Fatal("expected transaction to be kept")
	}
	if tx.Debit != 1499 || tx.Credit != 0 {
		t.Errorf("Debit/Credit = %v/%v, want 1499/0", tx.Debit, tx.Credit)
	}
	if tx.Balance != nil {
		t.Errorf("Balance = %v, want nil when not provided", *tx.Balance)
	}
	if tx.Currency != "INR" {
		t.Errorf("Currency = %q, want default INR", tx.Currency)
	}
}

func TestNormalizer_Drops(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	tests := []struct {
		name      string
		candidate map[string]any
	}{
		{"both zero", map[string]any{"date": "2024-01-01", "description": "x", "debit": 0.0, "credit": 0.0}},
		{"no amount at all", map[string]any{"date": "2024-01-01", "description": "Opening balance", "balance": 100.0}},
		{"no date", map[string]any{"description": "x", "debit": 10.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := n.Normalize(tt.candidate, ""); ok {
				t.Error("expected candidate to be dropped")
			}
		})
	}
}

func TestNormalizer_BothSidesKept(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	tx, ok := n.Normalize(map[string]any{"date": "2024-01-01", "debit": 10.0, "credit": 20.0}, "")
	if !ok {
		t.Fatal("anomalous row with both sides should be kept")
	}
	if tx.IsWellFormed() {
		t.Error("row with both sides should not be well-formed")
	}
}

func TestNormalizer_OverdrawnBalance(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	tx, ok := n.Normalize(map[string]any{"date": "2024-01-01", "debit": "100", "balance": "2,500.00 Dr"}, "")
	if !ok {
		t.Fatal("expected transaction")
	}
	if tx.Balance == nil || *tx.Balance != -2500 {
		t.Errorf("Balance = %v, want -2500", tx.Balance)
	}
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	n := newTestNormalizer(DirectionCredit)

	txs, dropped := n.NormalizeAll([]map[string]any{
		{"date": "01/01/2024", "description": "a", "debit": 1.0},
		{"date": "02/01/2024", "description": "b"},
		{"date": "03/01/2024", "description": "c", "credit": "3"},
	}, "SBI")

	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(txs) != 2 || txs[0].Description != "a" || txs[1].Description != "c" {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
	if txs[0].ID == txs[1].ID {
		t.Error("expected unique ids")
	}
}

func TestNew_UnknownCurrencyFallsBack(t *testing.T) {
	n := New(Options{DefaultCurrency: "ZZZ"})
	if n.opts.DefaultCurrency != "INR" {
		t.Errorf("DefaultCurrency = %q, want INR", n.opts.DefaultCurrency)
	}
}
