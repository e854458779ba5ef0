package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/pubsheet/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	text string
	got  []source.Source
}

func (f *stubFetcher) FetchText(_ context.Context, src source.Source) (string, error) {
	f.got = append(f.got, src)
	return f.text, nil
}

const people = "name,age\nAlice,30\nBob,25\nCarol,41"

func execute(t *testing.T, f *stubFetcher, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(f)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestList(t *testing.T) {
	f := &stubFetcher{text: people}
	out, _, err := execute(t, f, "list", "--pub-id", "2PACX-abc", "--gid", "7", "--limit", "1", "--offset", "1")
	require.NoError(t, err)

	assert.Equal(t, "[\n  {\n    \"name\": \"Bob\",\n    \"age\": \"25\"\n  }\n]\n", out)
	require.Len(t, f.got, 1)
	assert.Equal(t, source.Source{ID: "2PACX-abc", GID: "7", Published: true}, f.got[0])
}

func TestQuery(t *testing.T) {
	out, _, err := execute(t, &stubFetcher{text: people}, "query",
		"--pub-id", "2PACX-abc",
		"--filters", `[{"column":"age","op":">=","value":30}]`,
		"--sort", "age:desc",
		"--select", "name",
	)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"Carol\"\n  },\n  {\n    \"name\": \"Alice\"\n  }\n]\n", out)
}

func TestExport(t *testing.T) {
	out, _, err := execute(t, &stubFetcher{text: people}, "export",
		"--pub-id", "2PACX-abc",
		"--filters", `[{"name":"ALICE"}]`,
		"--select", "age,name",
		"--no-header",
	)
	require.NoError(t, err)
	assert.Equal(t, "30,Alice\r\n", out)
}

func TestCall(t *testing.T) {
	out, _, err := execute(t, &stubFetcher{text: people}, "call", "list_rows", `{"pub_id":"2PACX-abc","limit":1}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Alice"`)
	assert.NotContains(t, out, "Bob")
}

func TestToolFailure(t *testing.T) {
	out, errOut, err := execute(t, &stubFetcher{text: people}, "list")

	var te *toolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "SRC001", te.code)
	assert.Empty(t, out)
	assert.True(t, strings.HasPrefix(errOut, "Error fetching published CSV: source missing"))
	assert.Contains(t, errOut, "Hint: No spreadsheet was given (Code: SRC001)")
}

func TestBadFiltersFlag(t *testing.T) {
	_, _, err := execute(t, &stubFetcher{text: people}, "query", "--pub-id", "x", "--filters", "{")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--filters")
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := execute(t, &stubFetcher{}, "--log-level", "loud", "tools")
	assert.Error(t, err)
}

func TestToolsListing(t *testing.T) {
	out, _, err := execute(t, &stubFetcher{}, "tools")
	require.NoError(t, err)
	for _, name := range []string{"export_subset", "list_rows", "query_rows"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "pub_id")
}

func TestParseSortFlag(t *testing.T) {
	got := parseSortFlag([]string{"age:desc", " name "})
	assert.Equal(t, []any{
		map[string]any{"column": "age", "direction": "desc"},
		map[string]any{"column": "name"},
	}, got)
}
