package tools

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/pubsheet/internal/logging"
	"github.com/JonMunkholm/pubsheet/internal/sheet"
	"github.com/JonMunkholm/pubsheet/internal/source"
)

// Argument names.
const (
	ParamURL             = "url"
	ParamPubID           = "pub_id"
	ParamGID             = "gid"
	ParamHeaderRow       = "header_row"
	ParamLimit           = "limit"
	ParamOffset          = "offset"
	ParamFilters         = "filters"
	ParamSelect          = "select"
	ParamSort            = "sort"
	ParamCaseInsensitive = "case_insensitive"
	ParamFormat          = "format"
	ParamIncludeHeader   = "include_header"
)

// Argument defaults.
const (
	DefaultHeaderRow = 1
	DefaultLimit     = 100
	DefaultFormat    = "csv"
)

var (
	sourceParams = []Param{
		{Name: ParamURL, Type: "string", Description: "Published or edit link to the sheet; wins over pub_id"},
		{Name: ParamPubID, Type: "string", Description: "Published id (2PACX-...) or document id"},
		{Name: ParamGID, Type: "string", Default: "0", Description: "Tab id, used with pub_id"},
		{Name: ParamHeaderRow, Type: "integer", Default: "1", Description: "1-based row holding the column names"},
	}
	filtersParam = Param{
		Name: ParamFilters, Type: "array",
		Description: `Conditions, all of which must hold: {"column","op","value"} or {"<column>": value}`,
	}
	selectParam = Param{Name: ParamSelect, Type: "array", Description: "Columns to return, in order"}
)

func withSource(extra ...Param) []Param {
	out := make([]Param, 0, len(sourceParams)+len(extra))
	out = append(out, sourceParams...)
	return append(out, extra...)
}

// loadRecords resolves the source in args, downloads it and parses it.
func loadRecords(ctx context.Context, f Fetcher, args Args) (source.Source, []sheet.Record, error) {
	src, err := args.Source()
	if err != nil {
		return source.Source{}, nil, err
	}
	headerRow, err := args.Int(ParamHeaderRow, DefaultHeaderRow)
	if err != nil {
		return src, nil, err
	}

	text, err := f.FetchText(ctx, src)
	if err != nil {
		return src, nil, err
	}

	records, err := sheet.Parse(text, headerRow)
	if err != nil {
		return src, nil, fmt.Errorf("doc %s gid %s: %w", src.ID, src.GID, err)
	}

	logging.WithFields(ctx, "doc_id", src.ID, "gid", src.GID).Debug("sheet loaded",
		"bytes", len(text),
		"records", len(records),
		"header_row", headerRow,
	)
	return src, records, nil
}

// pageArgs reads offset and limit.
func pageArgs(args Args) (offset, limit int, err error) {
	if offset, err = args.Int(ParamOffset, 0); err != nil {
		return 0, 0, err
	}
	if limit, err = args.Int(ParamLimit, DefaultLimit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func jsonResult(src source.Source, records []sheet.Record) (Result, error) {
	text, err := sheet.ToJSON(records)
	if err != nil {
		return Result{Source: src}, err
	}
	return Result{Text: text, Rows: len(records), JSON: true, Source: src}, nil
}
