package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_CSVURL(t *testing.T) {
	f := NewFetcher(Options{BaseURL: "https://docs.google.com/"})

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "published first tab omits gid",
			src:  Source{ID: "2PACX-abc", GID: "0", Published: true},
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?single=true&output=csv",
		},
		{
			name: "published empty gid omits gid",
			src:  Source{ID: "2PACX-abc", Published: true},
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?single=true&output=csv",
		},
		{
			name: "published other tab",
			src:  Source{ID: "2PACX-abc", GID: "99", Published: true},
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?gid=99&single=true&output=csv",
		},
		{
			name: "document export",
			src:  Source{ID: "1AbC", GID: "5"},
			want: "https://docs.google.com/spreadsheets/d/1AbC/export?format=csv&gid=5",
		},
		{
			name: "document export default gid",
			src:  Source{ID: "1AbC"},
			want: "https://docs.google.com/spreadsheets/d/1AbC/export?format=csv&gid=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.CSVURL(tt.src))
		})
	}
}

func TestFetcher_FetchText(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.UserAgent()
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("name,age\nAlice,30\n"))
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, UserAgent: "pubsheet-test"})
	text, err := f.FetchText(context.Background(), Source{ID: "2PACX-abc", GID: "7", Published: true})
	require.NoError(t, err)

	assert.Equal(t, "name,age\nAlice,30\n", text)
	assert.Equal(t, "/spreadsheets/d/e/2PACX-abc/pub", gotPath)
	assert.Equal(t, "gid=7&single=true&output=csv", gotQuery)
	assert.Equal(t, "pubsheet-test", gotUA)
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/spreadsheets/d/e/2PACX-abc/pub", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/content", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a\n1\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL})
	text, err := f.FetchText(context.Background(), Source{ID: "2PACX-abc", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", text)
}

func TestFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL})
	_, err := f.FetchText(context.Background(), Source{ID: "2PACX-missing", Published: true})
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, fe.NotFound())
	assert.False(t, fe.Timeout())
	assert.Contains(t, err.Error(), "404 Not Found")
	assert.Contains(t, err.Error(), "/spreadsheets/d/e/2PACX-missing/pub")
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := f.FetchText(context.Background(), Source{ID: "1AbC"})

	var fe *FetchError
	require.True(t, errors.As(err, &fe), "error = %v", err)
	assert.True(t, fe.Timeout())
	assert.Zero(t, fe.StatusCode)
}

func TestFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(Options{BaseURL: srv.URL})
	_, err := f.FetchText(ctx, Source{ID: "1AbC"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFetcher_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, MaxBodyBytes: 10})
	_, err := f.FetchText(context.Background(), Source{ID: "1AbC"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))

	f = NewFetcher(Options{BaseURL: srv.URL, MaxBodyBytes: 100})
	text, err := f.FetchText(context.Background(), Source{ID: "1AbC"})
	require.NoError(t, err)
	assert.Len(t, text, 100)
}
