package sheet

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Filter operators. Each comparison has a symbolic and a word form.
const (
	OpEq       = "=="
	OpNe       = "!="
	OpGt       = ">"
	OpGe       = ">="
	OpLt       = "<"
	OpLe       = "<="
	OpContains = "contains"
	OpIn       = "in"
)

// FilterSpec is one filter condition: Column Op Value.
type FilterSpec struct {
	Column string
	Op     string
	Value  any
}

// ParseFilters normalizes filter conditions as they arrive over the wire.
//
// A map with any of the keys "column", "op" or "value" is an explicit
// condition; a missing or empty op means "==". A map with none of those keys
// and exactly one entry is shorthand for {column: key, op: "==", value: v}.
// Any other shorthand-looking map carries no constraint and is dropped.
func ParseFilters(raw []map[string]any) []FilterSpec {
	out := make([]FilterSpec, 0, len(raw))
	for _, m := range raw {
		if f, ok := ParseFilter(m); ok {
			out = append(out, f)
		}
	}
	return out
}

// ParseFilter normalizes a single condition. ok is false when the map is
// dropped (see ParseFilters).
func ParseFilter(m map[string]any) (f FilterSpec, ok bool) {
	col, hasCol := m["column"]
	op, hasOp := m["op"]
	val, hasVal := m["value"]

	if !hasCol && !hasOp && !hasVal {
		if len(m) != 1 {
			return FilterSpec{}, false
		}
		for k, v := range m {
			f = FilterSpec{Column: k, Op: OpEq, Value: v}
		}
		return f, true
	}

	f = FilterSpec{Op: OpEq, Value: val}
	if s, isStr := col.(string); isStr {
		f.Column = s
	}
	switch o := op.(type) {
	case nil:
	case string:
		if o != "" {
			f.Op = strings.ToLower(o)
		}
	default:
		// Never a known operator; the condition rejects every record.
		f.Op = fmt.Sprint(o)
	}
	return f, true
}

// Filter keeps the records that satisfy every filter. With no filters the
// input is returned unchanged.
//
// Both sides are coerced before comparing. When caseInsensitive is set and
// both sides are strings they are case-folded first.
func Filter(records []Record, filters []FilterSpec, caseInsensitive bool) []Record {
	if len(filters) == 0 {
		return records
	}

	m := matcher{filters: filters, caseInsensitive: caseInsensitive}
	if caseInsensitive {
		m.folder = cases.Fold()
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if m.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

type matcher struct {
	filters         []FilterSpec
	caseInsensitive bool
	folder          cases.Caser
}

func (m *matcher) fold(s string) string {
	return m.folder.String(s)
}

func (m *matcher) match(rec Record) bool {
	for _, f := range m.filters {
		left := Coerce(rec.Get(f.Column))
		right := Coerce(f.Value)

		ls, lStr := left.(string)
		rs, rStr := right.(string)
		if lStr && rStr && m.caseInsensitive {
			ls, rs = m.fold(ls), m.fold(rs)
			left, right = ls, rs
		}

		var ok bool
		switch f.Op {
		case OpEq, "eq":
			ok = Equal(left, right)
		case OpNe, "ne":
			ok = !Equal(left, right)
		case OpGt, "gt":
			c, valid := compareOrdered(left, right)
			ok = valid && c > 0
		case OpGe, "ge":
			c, valid := compareOrdered(left, right)
			ok = valid && c >= 0
		case OpLt, "lt":
			c, valid := compareOrdered(left, right)
			ok = valid && c < 0
		case OpLe, "le":
			c, valid := compareOrdered(left, right)
			ok = valid && c <= 0
		case OpContains:
			// Only string against string; anything else rejects the record.
			if !lStr || !rStr {
				return false
			}
			ok = strings.Contains(ls, rs)
		case OpIn:
			ok = m.in(left, f.Value)
		default:
			return false
		}

		if !ok {
			return false
		}
	}
	return true
}

// in reports whether left equals any element of list. A scalar list is
// treated as a single element and nil as an empty list.
func (m *matcher) in(left any, list any) bool {
	var items []any
	switch v := list.(type) {
	case nil:
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		items = []any{v}
	}

	s, isStr := left.(string)
	foldAll := isStr && m.caseInsensitive
	if foldAll {
		left = m.fold(s)
	}

	for _, item := range items {
		c := Coerce(item)
		if foldAll {
			if cs, ok := c.(string); ok {
				c = m.fold(cs)
			}
		}
		if Equal(left, c) {
			return true
		}
	}
	return false
}
