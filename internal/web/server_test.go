package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/pubsheet/internal/audit"
	"github.com/JonMunkholm/pubsheet/internal/config"
	"github.com/JonMunkholm/pubsheet/internal/source"
	"github.com/JonMunkholm/pubsheet/internal/tools"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	text string
	err  error
}

func (f stubFetcher) FetchText(context.Context, source.Source) (string, error) {
	return f.text, f.err
}

type stubLister struct {
	calls []audit.Call
	err   error
	limit int
}

func (l *stubLister) Recent(_ context.Context, limit int) ([]audit.Call, error) {
	l.limit = limit
	return l.calls, l.err
}

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFunc(func(k string) string { return vars[k] })
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, f tools.Fetcher, opts ...Option) *Server {
	t.Helper()
	svc := tools.NewService(f, tools.WithLimiter(tools.NewCallLimiter(2, time.Second)))
	s := NewServer(svc, testConfig(t, map[string]string{"RATE_LIMIT_ENABLED": "false"}), opts...)
	t.Cleanup(s.Close)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// ---- Tool Call Tests ----

func TestCallTool_QueryRows(t *testing.T) {
	s := newTestServer(t, stubFetcher{text: "name,age\nAlice,30\nBob,25"})

	rec := do(s, http.MethodPost, "/api/tools/query_rows",
		`{"pub_id":"2PACX-abc","filters":[{"column":"age","op":">","value":26}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "[\n  {\n    \"name\": \"Alice\",\n    \"age\": \"30\"\n  }\n]", rec.Body.String())
	assert.Empty(t, rec.Header().Get(HeaderErrorCode))

	_, err := uuid.Parse(rec.Header().Get(HeaderCallID))
	assert.NoError(t, err, "X-Call-ID should be a uuid")
}

func TestCallTool_ExportCSV(t *testing.T) {
	s := newTestServer(t, stubFetcher{text: "name,age\nAlice,30\nBob,25"})

	rec := do(s, http.MethodPost, "/api/tools/export_subset", `{"pub_id":"2PACX-abc","select":["age"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "age\r\n30\r\n25\r\n", rec.Body.String())
}

func TestCallTool_EmptyBody(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodPost, "/api/tools/list_rows", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SRC001", rec.Header().Get(HeaderErrorCode))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Error fetching published CSV: source missing"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestCallTool_ToolFailure(t *testing.T) {
	fetchErr := &source.FetchError{URL: "https://docs.google.com/x", StatusCode: http.StatusNotFound}
	s := newTestServer(t, stubFetcher{err: fetchErr})

	rec := do(s, http.MethodPost, "/api/tools/query_rows", `{"pub_id":"2PACX-abc"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FETCH001", rec.Header().Get(HeaderErrorCode))
	assert.Equal(t, "Error querying published CSV: fetch https://docs.google.com/x: unexpected status 404 Not Found", rec.Body.String())
}

func TestCallTool_BadJSON(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodPost, "/api/tools/list_rows", `{"pub_id":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ARG001", resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestCallTool_UnknownTool(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodPost, "/api/tools/drop_everything", `{}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "TOOL001", resp.Code)
}

func TestCallTool_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	big := `{"pub_id":"` + strings.Repeat("x", MaxArgsBytes) + `"}`
	rec := do(s, http.MethodPost, "/api/tools/list_rows", big)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// ---- Listing Tests ----

func TestListTools(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tools []struct {
			Name   string `json:"name"`
			Params []struct {
				Name string `json:"name"`
			} `json:"params"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, len(resp.Tools))
	for i, def := range resp.Tools {
		names[i] = def.Name
		assert.NotEmpty(t, def.Params, def.Name)
	}
	assert.Equal(t, []string{"export_subset", "list_rows", "query_rows"}, names)
}

func TestGetTool(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodGet, "/api/tools/export_subset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"export_subset"`)

	rec = do(s, http.MethodGet, "/api/tools/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Tools, 3)
	require.NotNil(t, resp.Limiter)
	assert.Equal(t, 2, resp.Limiter.MaxConcurrent)
	assert.Equal(t, 2, resp.Limiter.Available)
}

func TestRecentCalls(t *testing.T) {
	lister := &stubLister{calls: []audit.Call{{ID: uuid.New(), Tool: "list_rows", Status: audit.StatusOK}}}
	s := newTestServer(t, stubFetcher{}, WithCallLister(lister))

	rec := do(s, http.MethodGet, "/api/calls?limit=5000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxCallsLimit, lister.limit)
	assert.Contains(t, rec.Body.String(), `"tool":"list_rows"`)

	do(s, http.MethodGet, "/api/calls?limit=abc", "")
	assert.Equal(t, defaultCallsLimit, lister.limit)

	lister.err = errors.New("db down")
	rec = do(s, http.MethodGet, "/api/calls", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecentCalls_NotMountedWithoutLister(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodGet, "/api/calls", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- Middleware Tests ----

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := do(s, http.MethodDelete, "/api/tools", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	svc := tools.NewService(stubFetcher{})
	s := NewServer(svc, testConfig(t, map[string]string{"RATE_LIMIT_REQUESTS_PER_MINUTE": "2"}))
	defer s.Close()

	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)
	defer rl.stop()

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"), "limits are per client")

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("1.2.3.4"), "a new window refills")

	rl.stop() // idempotent
}
