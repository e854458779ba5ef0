package web

// errors.go renders HTTP-level failures: bad request bodies, unknown tools,
// rate limiting. A tool that runs and fails is not an HTTP error; its error
// string is the response body (see handleCallTool).
//
// The technical error is logged with the request id; the client gets the
// mapped user message and code.

import (
	"net/http"

	"github.com/JonMunkholm/pubsheet/internal/logging"
	"github.com/JonMunkholm/pubsheet/internal/tools"
)

// ErrorResponse is the JSON body of every HTTP error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError logs err and writes its user message with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := tools.MapError(err)

	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError writes a plain error with no mapped message.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, ErrorResponse{Error: message})
}
