package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
)

func testNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{DefaultCurrency: "INR", UnknownDirection: normalize.DirectionCredit})
}

const hdfcExport = `Account Statement
Account No: 50100012345678
,
Txn Date,Narration,Chq./Ref.No.,Withdrawal Amt.,Deposit Amt.,Closing Balance
01/04/24,UPI-SWIGGY-BLR,UPI123,"1,250.00",,"48,750.00"
02/04/24,SALARY APRIL,NEFT9,,"85,000.00","1,33,750.00"
,Opening balance carried forward,,,,
`

func TestParseCSV_SeparateColumns(t *testing.T) {
	res, err := ParseCSV(strings.NewReader(hdfcExport), testNormalizer(), "HDFC Bank")
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if res.HeaderRow != 4 {
		t.Errorf("HeaderRow = %d, want 4", res.HeaderRow)
	}
	if res.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(res.Transactions))
	}

	first := res.Transactions[0]
	if first.Date != "2024-04-01" || first.Debit != 1250 || first.Credit != 0 {
		t.Errorf("first = %+v", first)
	}
	if first.Reference != "UPI123" || first.BankName != "HDFC Bank" || first.Currency != "INR" {
		t.Errorf("first = %+v", first)
	}
	second := res.Transactions[1]
	if second.Credit != 85000 || second.Balance == nil || *second.Balance != 133750 {
		t.Errorf("second = %+v", second)
	}
}

func TestParseCSV_AmountWithTypeColumn(t *testing.T) {
	data := "\ufeffDate,Description,Amount (INR),Dr/Cr\n" +
		"2024-04-05,ATM WDL,500,DR\n" +
		"2024-04-06,REFUND,75.50,CR\n"

	res, err := ParseCSV(strings.NewReader(data), testNormalizer(), "")
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if res.HeaderRow != 1 || len(res.Transactions) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Transactions[0].Debit != 500 || res.Transactions[0].Credit != 0 {
		t.Errorf("ATM row = %+v", res.Transactions[0])
	}
	if res.Transactions[1].Credit != 75.5 || res.Transactions[1].Debit != 0 {
		t.Errorf("refund row = %+v", res.Transactions[1])
	}
}

func TestParseCSV_NoHeader(t *testing.T) {
	data := "just,some,numbers\n1,2,3\n"
	if _, err := ParseCSV(strings.NewReader(data), testNormalizer(), ""); !errors.Is(err, ErrNoHeader) {
		t.Errorf("ParseCSV() error = %v, want ErrNoHeader", err)
	}
}

func TestParseCSV_HeaderBeyondScanWindow(t *testing.T) {
	var b strings.Builder
	for i := 0; i < headerScanRows; i++ {
		b.WriteString("preamble line\n")
	}
	b.WriteString("Date,Narration,Debit,Credit\n2024-04-01,X,1,\n")

	if _, err := ParseCSV(strings.NewReader(b.String()), testNormalizer(), ""); !errors.Is(err, ErrNoHeader) {
		t.Errorf("ParseCSV() error = %v, want ErrNoHeader", err)
	}
}

func TestMatchColumn(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Value Date", "date", true},
		{"Particulars", "description", true},
		{"Withdrawal Amount (INR)", "debit", true},
		{"Deposits", "credit", true},
		{"Cr/Dr", "type", true},
		{"Balance (INR)", "balance", true},
		{"Branch", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := matchColumn(tt.header)
			if got != tt.want || ok != tt.ok {
				t.Errorf("matchColumn(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	balance := 9500.0
	txs := []domain.Transaction{
		{Date: "2024-04-01", Description: "RENT APRIL", Debit: 500, Balance: &balance, Currency: "INR"},
		{Date: "2024-04-01", Description: "RENT APRIL", Debit: 500, Balance: &balance, Currency: "INR"},
		{Date: "2024-04-02", Description: "INTEREST", Credit: 12.25, Currency: "INR"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, txs); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	res, err := ParseXLSX(bytes.NewReader(buf.Bytes()), testNormalizer(), "")
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(res.Transactions))
	}
	if got := res.Transactions[2]; got.Credit != 12.25 || got.Description != "INTEREST" {
		t.Errorf("interest row = %+v", got)
	}
	if got := res.Transactions[0]; got.Balance == nil || *got.Balance != 9500 {
		t.Errorf("rent row balance = %v", got.Balance)
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	if _, err := Parse("statement.ods", []byte("x"), testNormalizer(), ""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedFormat", err)
	}
}
