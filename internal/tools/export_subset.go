package tools

import (
	"context"
	"strings"

	"github.com/JonMunkholm/pubsheet/internal/sheet"
)

func init() {
	Register(Definition{
		Name:         "export_subset",
		Description:  "Export a filtered, selected subset of a published Google Sheet tab as CSV or JSON",
		ErrorContext: "exporting published subset",
		Params: withSource(
			filtersParam,
			selectParam,
			Param{Name: ParamFormat, Type: "string", Default: DefaultFormat, Description: `"csv" or "json"`},
			Param{Name: ParamIncludeHeader, Type: "boolean", Default: "true", Description: "Write the CSV header line"},
		),
		Run: ExportSubset,
	})
}

// ExportSubset filters (always case-insensitively) and selects, then renders
// CSV or JSON. There is no paging.
//
// For CSV with a select list every record is re-keyed to exactly that list,
// blank names included, so the column order always matches the request.
func ExportSubset(ctx context.Context, f Fetcher, args Args) (Result, error) {
	filters, err := args.Filters(ParamFilters)
	if err != nil {
		return Result{}, err
	}
	columns, err := args.Strings(ParamSelect)
	if err != nil {
		return Result{}, err
	}
	format, err := args.String(ParamFormat, DefaultFormat)
	if err != nil {
		return Result{}, err
	}
	includeHeader, err := args.Bool(ParamIncludeHeader, true)
	if err != nil {
		return Result{}, err
	}

	src, records, err := loadRecords(ctx, f, args)
	if err != nil {
		return Result{Source: src}, err
	}

	subset := sheet.Select(sheet.Filter(records, filters, true), columns)

	if strings.EqualFold(format, "json") {
		return jsonResult(src, subset)
	}

	if len(columns) > 0 {
		subset = sheet.Project(subset, columns)
	}
	text, err := sheet.ToCSV(subset, includeHeader)
	if err != nil {
		return Result{Source: src}, err
	}
	return Result{Text: text, Rows: len(subset), Source: src}, nil
}
