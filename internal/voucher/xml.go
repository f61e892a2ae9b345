package voucher

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five XML special characters with named entities.
// xml.EscapeText would write &#34; and &#39; for the quotes.
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

const (
	envelopeHead = `<ENVELOPE>
 <HEADER>
  <TALLYREQUEST>Import Data</TALLYREQUEST>
 </HEADER>
 <BODY>
  <IMPORTDATA>
   <REQUESTDESC>
    <REPORTNAME>Vouchers</REPORTNAME>
    <STATICVARIABLES>
     <SVCURRENTCOMPANY>%s</SVCURRENTCOMPANY>
    </STATICVARIABLES>
   </REQUESTDESC>
   <REQUESTDATA>
`
	envelopeTail = `   </REQUESTDATA>
  </IMPORTDATA>
 </BODY>
</ENVELOPE>
`
	voucherHead = `    <TALLYMESSAGE xmlns:UDF="TallyUDF">
     <VOUCHER VCHTYPE="%s" ACTION="Create" OBJVIEW="Accounting Voucher View">
      <DATE>%s</DATE>
      <VOUCHERTYPENAME>%s</VOUCHERTYPENAME>
      <VOUCHERNUMBER>%d</VOUCHERNUMBER>
      <PARTYLEDGERNAME>%s</PARTYLEDGERNAME>
      <NARRATION>%s</NARRATION>
`
	ledgerEntry = `      <ALLLEDGERENTRIES.LIST>
       <LEDGERNAME>%s</LEDGERNAME>
       <ISDEEMEDPOSITIVE>%s</ISDEEMEDPOSITIVE>
       <AMOUNT>%s</AMOUNT>
      </ALLLEDGERENTRIES.LIST>
`
	voucherTail = `     </VOUCHER>
    </TALLYMESSAGE>
`
)

// WriteVoucher writes one voucher as a TALLYMESSAGE fragment.
func WriteVoucher(w io.Writer, v Voucher) error {
	if _, err := fmt.Fprintf(w, voucherHead,
		Escape(string(v.Type)), Escape(v.Date), Escape(string(v.Type)), v.Number,
		Escape(v.Counterparty.Ledger), Escape(v.Narration)); err != nil {
		return err
	}
	for _, e := range v.Entries() {
		deemed := "No"
		if e.IsDeemedPositive() {
			deemed = "Yes"
		}
		if _, err := fmt.Fprintf(w, ledgerEntry, Escape(e.Ledger), deemed, e.Amount.StringFixed(2)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, voucherTail)
	return err
}

// Render writes the full import envelope for the given vouchers.
func Render(w io.Writer, vouchers []Voucher, companyName string) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, envelopeHead, Escape(companyName)); err != nil {
		return fmt.Errorf("Render: envelope: %w", err)
	}
	for _, v := range vouchers {
		if err := WriteVoucher(bw, v); err != nil {
			return fmt.Errorf("Render: voucher %d: %w", v.Number, err)
		}
	}
	if _, err := io.WriteString(bw, envelopeTail); err != nil {
		return fmt.Errorf("Render: envelope: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("Render: flush: %w", err)
	}
	return nil
}

// Generate builds vouchers from transactions and renders the export document.
// It returns the number of vouchers written.
func Generate(w io.Writer, txs []domain.Transaction, opts domain.ExportOptions) (int, error) {
	opts = opts.WithDefaults()
	vouchers := Build(txs, opts)
	if err := Render(w, vouchers, opts.CompanyName); err != nil {
		return 0, fmt.Errorf("Generate: %w", err)
	}
	return len(vouchers), nil
}
