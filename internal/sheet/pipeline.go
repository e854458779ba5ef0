package sheet

import "slices"

// Query holds the parameters of a full pipeline run.
type Query struct {
	Filters         []FilterSpec
	Sort            []SortSpec
	Select          []string
	Offset          int
	Limit           int
	CaseInsensitive bool
}

// Run applies filter, sort, select and page, in that order. Sorting happens
// before projection so that sort keys may name columns that are not selected.
func Run(records []Record, q Query) []Record {
	out := Filter(records, q.Filters, q.CaseInsensitive)
	out = Sort(out, q.Sort)
	out = Select(out, q.Select)
	return Page(out, q.Offset, q.Limit)
}

// Select projects records onto columns, in the given order. Empty names are
// ignored; columns a record lacks come out as nil. With no columns the input
// is returned unchanged.
func Select(records []Record, columns []string) []Record {
	if len(columns) == 0 {
		return records
	}

	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return Project(records, cols)
}

// Project re-keys every record to exactly columns, in order, including any
// empty names. See Record.Project.
func Project(records []Record, columns []string) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = rec.Project(columns)
	}
	return out
}

// Page returns at most limit records starting at offset. A negative offset
// counts as 0; a limit of 0 or less, or an offset past the end, yields no
// records.
func Page(records []Record, offset, limit int) []Record {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(records) {
		return []Record{}
	}

	end := len(records)
	if limit < end-offset {
		end = offset + limit
	}
	return slices.Clone(records[offset:end])
}
