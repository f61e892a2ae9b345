package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
)

// ParseCSV reads a CSV export. Rows may have differing widths.
func ParseCSV(r io.Reader, n *normalize.Normalizer, bankName string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: read: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	res, err := mapRows(rows, n, bankName)
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: %w", err)
	}
	return res, nil
}
