package tools

// errors.go maps call errors to stable codes for logs, audit rows and the
// X-Tool-Error-Code response header.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - No source: neither url nor pub_id was given
//	SRC002 - Unrecognized link: url is not a spreadsheet link
//
// # Fetch Errors (FETCH001-FETCH099)
//
//	FETCH001 - Not found: the sheet does not exist or is not published
//	FETCH002 - Timeout: the download took too long
//	FETCH003 - Too large: the export exceeds the size limit
//	FETCH004 - Download failed: any other network or HTTP failure
//
// # Data Errors (CSV001-CSV099)
//
//	CSV001 - Invalid CSV: the export could not be parsed
//
// # Call Errors (ARG001, BUSY001, CTX001, TOOL001)
//
//	ARG001  - Invalid arguments: an argument has the wrong shape
//	TOOL001 - Unknown tool: no tool has the requested name
//	BUSY001 - Busy: no call slot became free in time
//	CTX001  - Cancelled: the caller went away
//
// # Default Error (ERR000)
//
// Fallback when no rule matches. Check the logs for the technical error.
//
// Rules are tried in order and the first match wins. Typed errors are
// matched with errors.Is / errors.As; the rest by case-insensitive substring.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/pubsheet/internal/source"
)

// UserMessage is the caller-facing reading of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Stable reference code
}

// errorRule matches an error and maps it to a user message.
type errorRule struct {
	match func(err error) bool
	msg   UserMessage
}

func isFetchError(pred func(*source.FetchError) bool) func(error) bool {
	return func(err error) bool {
		var fe *source.FetchError
		return errors.As(err, &fe) && pred(fe)
	}
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func contains(pattern string) func(error) bool {
	return func(err error) bool {
		return strings.Contains(strings.ToLower(err.Error()), pattern)
	}
}

var errorRules = []errorRule{
	// =========================================================================
	// Source Errors (SRC001-SRC002)
	// =========================================================================
	{
		match: is(source.ErrSourceMissing),
		msg: UserMessage{
			Message: "No spreadsheet was given",
			Action:  "Pass url, or pub_id with an optional gid",
			Code:    "SRC001",
		},
	},
	{
		match: func(err error) bool {
			var ue *source.UnrecognizedURLError
			return errors.As(err, &ue)
		},
		msg: UserMessage{
			Message: "The link is not a Google Sheets link",
			Action:  "Use the Publish to web link or the sheet's edit link",
			Code:    "SRC002",
		},
	},

	// =========================================================================
	// Fetch Errors (FETCH001-FETCH004)
	// =========================================================================
	{
		match: isFetchError((*source.FetchError).NotFound),
		msg: UserMessage{
			Message: "The sheet was not found or is not published",
			Action:  "Publish the sheet with File > Share > Publish to web, or share the link with anyone",
			Code:    "FETCH001",
		},
	},
	{
		match: isFetchError((*source.FetchError).Timeout),
		msg: UserMessage{
			Message: "Downloading the sheet timed out",
			Action:  "Please try again in a few moments",
			Code:    "FETCH002",
		},
	},
	{
		match: is(source.ErrBodyTooLarge),
		msg: UserMessage{
			Message: "The sheet export is too large",
			Action:  "Publish a single tab or a smaller range",
			Code:    "FETCH003",
		},
	},
	// A cancelled download is the caller's doing, not a fetch failure.
	{
		match: is(context.Canceled),
		msg: UserMessage{
			Message: "The call was cancelled",
			Action:  "Please try again",
			Code:    "CTX001",
		},
	},
	{
		match: isFetchError(func(*source.FetchError) bool { return true }),
		msg: UserMessage{
			Message: "The sheet could not be downloaded",
			Action:  "Check the link and that the sheet is shared publicly",
			Code:    "FETCH004",
		},
	},

	// =========================================================================
	// Data and Call Errors
	// =========================================================================
	{
		match: contains("parse csv"),
		msg: UserMessage{
			Message: "The sheet export is not valid CSV",
			Action:  "Check that the link points to a sheet, not a chart or document",
			Code:    "CSV001",
		},
	},
	{
		match: func(err error) bool {
			var ae *ArgError
			return errors.As(err, &ae)
		},
		msg: UserMessage{
			Message: "An argument has the wrong type",
			Action:  "Check the parameter names and types in the tool listing",
			Code:    "ARG001",
		},
	},
	{
		match: is(ErrUnknownTool),
		msg: UserMessage{
			Message: "There is no tool with that name",
			Action:  "List the available tools with GET /api/tools",
			Code:    "TOOL001",
		},
	},
	{
		match: is(ErrTooManyCalls),
		msg: UserMessage{
			Message: "Too many calls are in progress",
			Action:  "Please wait a moment and try again",
			Code:    "BUSY001",
		},
	},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server logs",
	Code:    "ERR000",
}

// MapError converts an error to its user message. The first matching rule
// wins; a nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
