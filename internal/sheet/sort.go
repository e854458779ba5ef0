package sheet

import (
	"cmp"
	"slices"
	"strings"
)

// SortSpec orders records by one column. Direction is "asc" (the default)
// or "desc", in any case.
type SortSpec struct {
	Column    string
	Direction string
}

// Descending reports whether the key sorts in descending order.
func (s SortSpec) Descending() bool {
	return strings.ToLower(s.Direction) == "desc"
}

// Sort orders records by keys, the first key having the highest priority.
// With no keys the input is returned unchanged; otherwise a sorted copy is
// returned and the input is left as is.
//
// Ascending order puts nil cells first, then numbers (and booleans), then
// strings. Descending is the exact reverse, so nil cells go last. Records
// that tie keep their relative order.
func Sort(records []Record, keys []SortSpec) []Record {
	if len(keys) == 0 {
		return records
	}

	out := slices.Clone(records)
	items := make([]keyedRecord, len(out))

	// One stable pass per key, last key first, leaves the first key primary.
	for k := len(keys) - 1; k >= 0; k-- {
		key := keys[k]
		for i, rec := range out {
			items[i] = keyedRecord{rec: rec, key: newSortKey(rec.Get(key.Column))}
		}

		desc := key.Descending()
		slices.SortStableFunc(items, func(a, b keyedRecord) int {
			c := a.key.compare(b.key)
			if desc {
				return -c
			}
			return c
		})

		for i := range items {
			out[i] = items[i].rec
		}
	}
	return out
}

type keyedRecord struct {
	rec Record
	key sortKey
}

// sort ranks between kinds of cell value
const (
	rankNull = iota
	rankNumber
	rankString
)

type sortKey struct {
	rank  int
	isInt bool
	i     int64
	f     float64
	s     string
}

func newSortKey(cell any) sortKey {
	if cell == nil {
		return sortKey{rank: rankNull}
	}

	v := Coerce(cell)
	if i, f, isInt, ok := number(v); ok {
		return sortKey{rank: rankNumber, isInt: isInt, i: i, f: f}
	}
	if s, ok := v.(string); ok {
		return sortKey{rank: rankString, s: s}
	}
	return sortKey{rank: rankString, s: FormatCell(v)}
}

func (k sortKey) compare(o sortKey) int {
	if k.rank != o.rank {
		return cmp.Compare(k.rank, o.rank)
	}

	switch k.rank {
	case rankNumber:
		if k.isInt && o.isInt {
			return cmp.Compare(k.i, o.i)
		}
		return cmp.Compare(k.f, o.f)
	case rankString:
		return strings.Compare(k.s, o.s)
	}
	return 0
}
