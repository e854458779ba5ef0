package tools

import (
	"context"

	"github.com/JonMunkholm/pubsheet/internal/sheet"
)

func init() {
	Register(Definition{
		Name:         "list_rows",
		Description:  "List rows from a published Google Sheet tab (no auth), paged",
		ErrorContext: "fetching published CSV",
		Params: withSource(
			Param{Name: ParamLimit, Type: "integer", Default: "100", Description: "Maximum rows to return"},
			Param{Name: ParamOffset, Type: "integer", Default: "0", Description: "Rows to skip"},
		),
		Run: ListRows,
	})
}

// ListRows returns one page of the sheet's records as a JSON array.
func ListRows(ctx context.Context, f Fetcher, args Args) (Result, error) {
	offset, limit, err := pageArgs(args)
	if err != nil {
		return Result{}, err
	}

	src, records, err := loadRecords(ctx, f, args)
	if err != nil {
		return Result{Source: src}, err
	}

	return jsonResult(src, sheet.Page(records, offset, limit))
}
