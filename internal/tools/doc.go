// Package tools defines the remote-callable operations over published
// sheets: list_rows, query_rows and export_subset.
//
// Each tool registers itself from init with a Definition. Transports look
// tools up by name and run them through Service.Call, which decodes nothing
// itself: arguments arrive as an Args bag and the result is always a string.
// Failures become "Error <context>: <message>" results and are never
// returned as Go errors past Call.
package tools
