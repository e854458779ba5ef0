package source

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		url  string
		id   string
		gid  string
		want Source
	}{
		{
			name: "published url with gid",
			url:  "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?gid=123&single=true&output=csv",
			want: Source{ID: "2PACX-abc", GID: "123", Published: true},
		},
		{
			name: "published url without gid",
			url:  "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pubhtml",
			want: Source{ID: "2PACX-abc", GID: "0", Published: true},
		},
		{
			name: "edit url with fragment gid",
			url:  "https://docs.google.com/spreadsheets/d/1AbC_d-9/edit#gid=456",
			want: Source{ID: "1AbC_d-9", GID: "456"},
		},
		{
			name: "edit url with fragment range",
			url:  "https://docs.google.com/spreadsheets/d/1AbC/edit#gid=7&range=A1",
			want: Source{ID: "1AbC", GID: "7"},
		},
		{
			name: "edit url with query gid",
			url:  "https://docs.google.com/spreadsheets/d/1AbC/edit?gid=8",
			want: Source{ID: "1AbC", GID: "8"},
		},
		{
			name: "fragment wins over query",
			url:  "https://docs.google.com/spreadsheets/d/1AbC/edit?gid=8#gid=9",
			want: Source{ID: "1AbC", GID: "9"},
		},
		{
			name: "bare document url",
			url:  "https://docs.google.com/spreadsheets/d/1AbC",
			want: Source{ID: "1AbC", GID: "0"},
		},
		{
			name: "account scoped url",
			url:  "https://docs.google.com/spreadsheets/u/1/d/1AbC/edit#gid=2",
			want: Source{ID: "1AbC", GID: "2"},
		},
		{
			name: "url wins over id",
			url:  "https://docs.google.com/spreadsheets/d/1AbC/edit",
			id:   "2PACX-ignored",
			gid:  "5",
			want: Source{ID: "1AbC", GID: "0"},
		},
		{
			name: "published id",
			id:   "2PACX-xyz",
			gid:  "42",
			want: Source{ID: "2PACX-xyz", GID: "42", Published: true},
		},
		{
			name: "document id default gid",
			id:   " 1AbC ",
			want: Source{ID: "1AbC", GID: "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.url, tt.id, tt.gid)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolve_Missing(t *testing.T) {
	_, err := Resolve("", "  ", "3")
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("Resolve() error = %v, want ErrSourceMissing", err)
	}
}

func TestResolve_Unrecognized(t *testing.T) {
	urls := []string{
		"not a url",
		"https://example.com/some/page",
		"https://docs.google.com/spreadsheets/d/e/2PACX-abc",
		"https://docs.google.com/spreadsheets/d/e/2PACX-abc/edit",
		"https://docs.google.com/document/d/1AbC/edit",
		"/spreadsheets/d/1AbC",
	}

	for _, raw := range urls {
		t.Run(raw, func(t *testing.T) {
			_, err := Resolve(raw, "", "")
			var ue *UnrecognizedURLError
			if !errors.As(err, &ue) {
				t.Fatalf("Resolve(%q) error = %v, want *UnrecognizedURLError", raw, err)
			}
			if ue.URL != raw {
				t.Errorf("URL = %q, want %q", ue.URL, raw)
			}
		})
	}
}
