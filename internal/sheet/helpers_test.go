package sheet

import (
	"reflect"
	"testing"
)

// rec builds a record from alternating column names and values.
func rec(kv ...any) Record {
	r := NewRecord(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

// column collects one column's values across records.
func column(records []Record, name string) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r.Get(name)
	}
	return out
}

func assertColumn(t *testing.T, records []Record, name string, want ...any) {
	t.Helper()
	got := column(records, name)
	if len(want) == 0 {
		want = []any{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("column %q = %v, want %v", name, got, want)
	}
}

func assertKeys(t *testing.T, r Record, want ...string) {
	t.Helper()
	got := r.Keys()
	if len(want) == 0 {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %q, want %q", got, want)
	}
}

func recordsEqual(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i].Keys(), b[i].Keys()) {
			return false
		}
		for _, k := range a[i].Keys() {
			if !reflect.DeepEqual(a[i].Get(k), b[i].Get(k)) {
				return false
			}
		}
	}
	return true
}
