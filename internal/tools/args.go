package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/pubsheet/internal/sheet"
	"github.com/JonMunkholm/pubsheet/internal/source"
)

// Args is the argument bag of one call, as decoded from JSON. Numbers may
// arrive as json.Number (decoder with UseNumber), float64, or Go integers.
type Args map[string]any

// ArgError reports an argument of the wrong shape.
type ArgError struct {
	Name   string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

func argErr(name, format string, a ...any) error {
	return &ArgError{Name: name, Reason: fmt.Sprintf(format, a...)}
}

// String returns a string argument. Numbers are accepted and formatted, so a
// gid sent as 123 reads as "123". Missing or null returns def.
func (a Args) String(name, def string) (string, error) {
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", argErr(name, "expected a string, got %T", v)
	}
}

// Int returns an integer argument. Integral floats and numeric strings are
// accepted. Missing or null returns def.
func (a Args) Int(name string, def int) (int, error) {
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if i, ok := floatToInt(v); ok {
			return i, nil
		}
		return 0, argErr(name, "expected an integer, got %v", v)
	case json.Number:
		return parseIntArg(name, v.String())
	case string:
		return parseIntArg(name, v)
	default:
		return 0, argErr(name, "expected an integer, got %T", v)
	}
}

func parseIntArg(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if i, ok := floatToInt(f); ok {
			return i, nil
		}
	}
	return 0, argErr(name, "expected an integer, got %q", s)
}

// floatToInt converts f when it is integral and fits in an int.
func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f < math.MinInt || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// Bool returns a boolean argument. "true"/"false" strings (any case) are
// accepted. Missing or null returns def.
func (a Args) Bool(name string, def bool) (bool, error) {
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, argErr(name, "expected a boolean, got %q", v)
		}
		return b, nil
	default:
		return false, argErr(name, "expected a boolean, got %T", v)
	}
}

// Strings returns a list of strings. Null elements read as "". Missing or
// null returns nil.
func (a Args) Strings(name string) ([]string, error) {
	switch v := a[name].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			switch s := item.(type) {
			case nil:
			case string:
				out[i] = s
			default:
				return nil, argErr(name, "element %d: expected a string, got %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, argErr(name, "expected a list of strings, got %T", v)
	}
}

// Filters returns the filter list, normalized by sheet.ParseFilters. A single
// object is read as a one-element list.
func (a Args) Filters(name string) ([]sheet.FilterSpec, error) {
	var raw []map[string]any
	switch v := a[name].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		raw = []map[string]any{v}
	case []map[string]any:
		raw = v
	case []any:
		raw = make([]map[string]any, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, argErr(name, "element %d: expected an object, got %T", i, item)
			}
			raw[i] = m
		}
	default:
		return nil, argErr(name, "expected a list of objects, got %T", v)
	}
	return sheet.ParseFilters(raw), nil
}

// Sort returns the sort keys. Each element is {"column": c, "direction": d}
// or a bare column name.
func (a Args) Sort(name string) ([]sheet.SortSpec, error) {
	var items []any
	switch v := a[name].(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case []map[string]any:
		items = make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
	case map[string]any:
		items = []any{v}
	default:
		return nil, argErr(name, "expected a list of sort keys, got %T", v)
	}

	out := make([]sheet.SortSpec, 0, len(items))
	for i, item := range items {
		switch s := item.(type) {
		case string:
			out = append(out, sheet.SortSpec{Column: s})
		case map[string]any:
			key := Args(s)
			col, err := key.String("column", "")
			if err != nil {
				return nil, argErr(name, "element %d: column must be a string", i)
			}
			dir, err := key.String("direction", "asc")
			if err != nil {
				return nil, argErr(name, "element %d: direction must be a string", i)
			}
			out = append(out, sheet.SortSpec{Column: col, Direction: dir})
		default:
			return nil, argErr(name, "element %d: expected an object, got %T", i, item)
		}
	}
	return out, nil
}

// Source resolves the url, pub_id and gid arguments.
func (a Args) Source() (source.Source, error) {
	u, err := a.String(ParamURL, "")
	if err != nil {
		return source.Source{}, err
	}
	id, err := a.String(ParamPubID, "")
	if err != nil {
		return source.Source{}, err
	}
	gid, err := a.String(ParamGID, source.DefaultGID)
	if err != nil {
		return source.Source{}, err
	}
	return source.Resolve(u, id, gid)
}

// DecodeArgs parses a JSON object into Args, keeping numbers as json.Number.
// Empty input yields empty Args.
func DecodeArgs(data []byte) (Args, error) {
	args := Args{}
	if len(bytes.TrimSpace(data)) == 0 {
		return args, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, &ArgError{Name: "arguments", Reason: "expected a JSON object: " + err.Error()}
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}
