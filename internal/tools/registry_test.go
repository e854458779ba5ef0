package tools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinTools(t *testing.T) {
	names := Names()
	assert.Subset(t, names, []string{"export_subset", "list_rows", "query_rows"})
	assert.True(t, sort.StringsAreSorted(names), "Names() = %v", names)

	for _, name := range []string{"export_subset", "list_rows", "query_rows"} {
		def, ok := Get(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Description, name)
		assert.NotEmpty(t, def.ErrorContext, name)
		assert.NotNil(t, def.Run, name)

		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = p.Name
		}
		assert.Subset(t, params, []string{ParamURL, ParamPubID, ParamGID, ParamHeaderRow}, name)
	}
}

func TestRegistry_ErrorContexts(t *testing.T) {
	want := map[string]string{
		"list_rows":     "fetching published CSV",
		"query_rows":    "querying published CSV",
		"export_subset": "exporting published subset",
	}
	for name, ctx := range want {
		def, _ := Get(name)
		assert.Equal(t, ctx, def.ErrorContext, name)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, ok := Get("nope")
	assert.False(t, ok)
}

func TestRegister_Panics(t *testing.T) {
	run := func(context.Context, Fetcher, Args) (Result, error) { return Result{}, nil }

	assert.Panics(t, func() { Register(Definition{Name: "list_rows", Run: run}) }, "duplicate")
	assert.Panics(t, func() { Register(Definition{Run: run}) }, "no name")
	assert.Panics(t, func() { Register(Definition{Name: "no_handler"}) }, "no handler")
}

func TestDefinition_JSON(t *testing.T) {
	def, _ := Get("list_rows")
	b, err := json.Marshal(def)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "list_rows", got["name"])
	assert.Contains(t, got, "params")
	assert.NotContains(t, got, "ErrorContext")
	assert.NotContains(t, got, "Run")
}
