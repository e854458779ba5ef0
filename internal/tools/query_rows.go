package tools

import (
	"context"

	"github.com/JonMunkholm/pubsheet/internal/sheet"
)

func init() {
	Register(Definition{
		Name:         "query_rows",
		Description:  "Filter, sort, select and page rows from a published Google Sheet tab (no auth)",
		ErrorContext: "querying published CSV",
		Params: withSource(
			filtersParam,
			selectParam,
			Param{Name: ParamSort, Type: "array", Description: `Sort keys, first is primary: {"column","direction":"asc"|"desc"}`},
			Param{Name: ParamLimit, Type: "integer", Default: "100", Description: "Maximum rows to return"},
			Param{Name: ParamOffset, Type: "integer", Default: "0", Description: "Rows to skip after filtering and sorting"},
			Param{Name: ParamCaseInsensitive, Type: "boolean", Default: "true", Description: "Fold case when comparing text"},
		),
		Run: QueryRows,
	})
}

// QueryRows runs the full pipeline (filter, sort, select, page) and returns
// the result as a JSON array.
func QueryRows(ctx context.Context, f Fetcher, args Args) (Result, error) {
	q, err := queryArgs(args)
	if err != nil {
		return Result{}, err
	}

	src, records, err := loadRecords(ctx, f, args)
	if err != nil {
		return Result{Source: src}, err
	}

	return jsonResult(src, sheet.Run(records, q))
}

func queryArgs(args Args) (sheet.Query, error) {
	var (
		q   sheet.Query
		err error
	)
	if q.Filters, err = args.Filters(ParamFilters); err != nil {
		return q, err
	}
	if q.Select, err = args.Strings(ParamSelect); err != nil {
		return q, err
	}
	if q.Sort, err = args.Sort(ParamSort); err != nil {
		return q, err
	}
	if q.Offset, q.Limit, err = pageArgs(args); err != nil {
		return q, err
	}
	if q.CaseInsensitive, err = args.Bool(ParamCaseInsensitive, true); err != nil {
		return q, err
	}
	return q, nil
}
