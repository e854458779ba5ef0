package sheet

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// ToCSV renders records as CSV with CRLF line endings.
//
// Columns come from the first record, in its order. Later records are
// written with those columns only: extra keys are ignored and missing
// keys are written empty. No records renders as "" (no header either).
func ToCSV(records []Record, includeHeader bool) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	columns := records[0].Keys()

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.UseCRLF = true

	if includeHeader {
		if err := w.Write(columns); err != nil {
			return "", fmt.Errorf("write csv header: %w", err)
		}
	}

	row := make([]string, len(columns))
	for n, rec := range records {
		for i, c := range columns {
			row[i] = FormatCell(rec.Get(c))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return b.String(), nil
}
