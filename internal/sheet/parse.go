package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some exporters put at the start of a file.
const utf8BOM = "\ufeff"

// Parse reads CSV text into records, taking column names from the 1-based
// headerRow. Values below 1 are treated as 1. Rows after the header become
// records; rows before it are ignored.
//
// Blank lines count as rows with no cells, so they shift headerRow and
// become records whose cells are all nil.
//
// An empty document or a header row past the end yields no records.
// Cells are kept as raw strings.
func Parse(text string, headerRow int) ([]Record, error) {
	rows, err := readRows(cleanText(text))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return recordsFromRows(rows, headerRow), nil
}

// ParseReader is Parse over an io.Reader. The whole input is read first.
func ParseReader(rd io.Reader, headerRow int) ([]Record, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(string(b), headerRow)
}

// cleanText drops a leading BOM and replaces invalid UTF-8 with U+FFFD.
func cleanText(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return s
}

// readRows splits text into CSV rows. encoding/csv skips blank lines, so
// each skipped line is put back as an empty row.
func readRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		rows     [][]string
		consumed int // bytes of text accounted for
		lines    int // newlines in text[:consumed]
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		start, _ := r.FieldPos(0)
		for n := lines + 1; n < start; n++ {
			rows = append(rows, []string{})
		}
		rows = append(rows, rec)

		off := int(r.InputOffset())
		lines += strings.Count(text[consumed:off], "\n")
		consumed = off
	}

	for range strings.Count(text[consumed:], "\n") {
		rows = append(rows, []string{})
	}
	return rows, nil
}

func recordsFromRows(rows [][]string, headerRow int) []Record {
	idx := max(headerRow, 1) - 1
	if idx >= len(rows) {
		return []Record{}
	}

	header := NormalizeHeader(rows[idx])
	data := rows[idx+1:]

	out := make([]Record, 0, len(data))
	for _, row := range data {
		rec := NewRecord(len(header))
		for i, name := range header {
			var cell any
			if i < len(row) {
				cell = row[i]
			}
			rec.Set(name, cell)
		}
		out = append(out, rec)
	}
	return out
}

// NormalizeHeader trims header names and names blank ones col1, col2, ...
// by their 1-based position.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "col" + strconv.Itoa(i+1)
		}
		out[i] = name
	}
	return out
}
