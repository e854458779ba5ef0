package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/pubsheet/internal/tools"
	"github.com/go-chi/chi/v5"
)

// Response headers of a tool call.
const (
	HeaderCallID    = "X-Call-ID"
	HeaderErrorCode = "X-Tool-Error-Code"
)

// Default and maximum page size of GET /api/calls.
const (
	defaultCallsLimit = 50
	maxCallsLimit     = 500
)

type healthResponse struct {
	Status  string               `json:"status"`
	Tools   []string             `json:"tools"`
	Limiter *tools.LimiterStatus `json:"limiter,omitempty"`
}

// handleHealth reports liveness and the call limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Tools: tools.Names()}
	if l := s.service.Limiter(); l != nil {
		st := l.Status()
		resp.Limiter = &st
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleListTools returns every tool definition.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"tools": tools.All()})
}

// handleGetTool returns one tool definition.
func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := tools.Get(name)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %q", tools.ErrUnknownTool, name), http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, def)
}

// handleCallTool runs a tool with the JSON object in the request body as its
// arguments. The tool's text is the response body with status 200 whether
// or not the tool failed; a failure sets X-Tool-Error-Code.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := tools.Get(name); !ok {
		respondError(w, r, fmt.Errorf("%w: %q", tools.ErrUnknownTool, name), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxArgsBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("arguments exceed %d bytes", tooLarge.Limit))
			return
		}
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	args, err := tools.DecodeArgs(body)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	out := s.service.Call(r.Context(), name, args)

	w.Header().Set(HeaderCallID, out.CallID.String())
	switch {
	case out.Failed():
		w.Header().Set(HeaderErrorCode, out.Code)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	case out.JSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out.Text)
}

// handleRecentCalls lists recorded calls, newest first.
func (s *Server) handleRecentCalls(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultCallsLimit)
	limit = min(limit, maxCallsLimit)

	calls, err := s.calls.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"calls": calls})
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
