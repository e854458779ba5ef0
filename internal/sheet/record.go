package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one row of a sheet: column name to cell value, in column order.
//
// Setting a key that already exists replaces its value but keeps the key in
// its original position. The zero Record is empty and ready to use.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record with room for n columns.
func NewRecord(n int) Record {
	return Record{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores value under key.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key, or nil if the column is absent.
func (r Record) Get(key string) any {
	return r.values[key]
}

// Lookup returns the value for key and whether the column exists.
func (r Record) Lookup(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.keys)
}

// Project returns a new record holding exactly columns, in that order.
// Columns missing from r are nil in the result.
func (r Record) Project(columns []string) Record {
	out := NewRecord(len(columns))
	for _, c := range columns {
		out.Set(c, r.values[c])
	}
	return out
}

// String renders the record for test failures and debug logs.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%v", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeTrimmed(enc, &buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeTrimmed(enc, &buf, r.values[k]); err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeTrimmed writes v and drops the newline json.Encoder appends.
func encodeTrimmed(enc *json.Encoder, buf *bytes.Buffer, v any) error {
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// ToJSON renders records as an indented JSON array (two spaces), keys in
// column order, with non-ASCII and HTML characters left unescaped.
// No records renders as "[]".
func ToJSON(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
