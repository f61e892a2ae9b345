package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vhsolanki8600/bank-to-tally/internal/dedupe"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
)

const exportSheet = "Transactions"

// ContentType is the MIME type of files written by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{"Date", "Description", "Reference", "Debit", "Credit", "Balance", "Currency", "Duplicate"}

// ParseXLSX reads the first worksheet of a spreadsheet export.
func ParseXLSX(r io.Reader, n *normalize.Normalizer, bankName string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ParseXLSX: open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ParseXLSX: %w", ErrNoHeader)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ParseXLSX: read sheet %q: %w", sheets[0], err)
	}

	res, err := mapRows(rows, n, bankName)
	if err != nil {
		return nil, fmt.Errorf("ParseXLSX: %w", err)
	}
	return res, nil
}

// WriteXLSX writes txs as a single-sheet workbook with duplicates flagged.
func WriteXLSX(w io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("WriteXLSX: rename sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "H1", bold)
	}

	dupes := dedupe.Mark(txs)
	for i, t := range txs {
		row := i + 2
		values := []any{t.Date, t.Description, t.Reference, t.Debit, t.Credit, nil, t.Currency, ""}
		if t.Balance != nil {
			values[5] = *t.Balance
		}
		if dupes[i] {
			values[7] = "Yes"
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
	}

	if len(txs) > 0 {
		if amounts, err := f.NewStyle(&excelize.Style{NumFmt: 4}); err == nil {
			last, _ := excelize.CoordinatesToCellName(6, len(txs)+1)
			_ = f.SetCellStyle(exportSheet, "D2", last, amounts)
		}
	}
	_ = f.SetColWidth(exportSheet, "B", "B", 48)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: write: %w", err)
	}
	return nil
}
