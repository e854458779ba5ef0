// Package sheet turns published spreadsheet CSV into records and runs the
// query pipeline over them.
//
// # Records
//
// [Parse] reads CSV text into [Record] values, one per row after the header
// row. A Record keeps its columns in header order and holds raw strings;
// short rows are padded with nil and long rows are cut to the header width.
//
// # Pipeline
//
// Four stages, each a pure function of its input:
//
//	Filter  keep records matching every FilterSpec
//	Sort    stable multi-key sort by SortSpec
//	Select  project onto a column list
//	Page    offset/limit window
//
// [Run] chains them in that fixed order. Comparisons in Filter and Sort go
// through [Coerce], so "10" and 10 compare equal and "9" < "10".
//
// # Output
//
// [ToJSON] and [ToCSV] serialize records with columns in record order.
package sheet
