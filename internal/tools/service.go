package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/pubsheet/internal/audit"
	"github.com/JonMunkholm/pubsheet/internal/logging"
	"github.com/google/uuid"
)

// ErrUnknownTool is returned for a name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Outcome is the result of Service.Call. Text is always set: the tool's
// output on success, "Error <context>: <message>" on failure.
type Outcome struct {
	CallID   uuid.UUID
	Tool     string
	Text     string
	JSON     bool   // Text is a JSON document
	Err      error  // nil on success
	Code     string // MapError code, empty on success
	Rows     int
	Duration time.Duration
}

// Failed reports whether the call produced an error string.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Service runs registered tools against a fetcher.
type Service struct {
	fetcher  Fetcher
	recorder audit.Recorder
	limiter  *CallLimiter
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every call with r.
func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLimiter bounds concurrent calls with l.
func WithLimiter(l *CallLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates a Service. Without options calls are neither recorded
// nor limited.
func NewService(f Fetcher, opts ...Option) *Service {
	s := &Service{fetcher: f, recorder: audit.NopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter returns the call limiter, or nil.
func (s *Service) Limiter() *CallLimiter {
	return s.limiter
}

// Call runs the named tool. It never returns an error or panics: failures
// come back as an Outcome whose Text is the error string.
func (s *Service) Call(ctx context.Context, name string, args Args) Outcome {
	start := time.Now()
	callID := uuid.New()
	ctx = logging.ContextWithCallID(ctx, callID.String())
	logger := logging.WithFields(ctx, "tool", name)

	out := Outcome{CallID: callID, Tool: name}

	def, ok := Get(name)
	if !ok {
		out.Err = fmt.Errorf("%w: %q", ErrUnknownTool, name)
		out.Text = "Error: " + out.Err.Error()
		out.Code = MapError(out.Err).Code
		out.Duration = time.Since(start)
		logger.Warn("tool call failed", "error", out.Err, "code", out.Code)
		return out
	}

	res, err := s.run(ctx, def, args)
	out.Duration = time.Since(start)

	if err != nil {
		out.Err = err
		out.Code = MapError(err).Code
		out.Text = fmt.Sprintf("Error %s: %v", def.ErrorContext, err)
		logger.Warn("tool call failed",
			"error", err,
			"code", out.Code,
			"doc_id", res.Source.ID,
			"duration_ms", out.Duration.Milliseconds(),
		)
	} else {
		out.Text, out.JSON, out.Rows = res.Text, res.JSON, res.Rows
		logger.Info("tool call",
			"doc_id", res.Source.ID,
			"gid", res.Source.GID,
			"rows", res.Rows,
			"duration_ms", out.Duration.Milliseconds(),
		)
	}

	s.record(ctx, out, res)
	return out
}

// run executes def inside a limiter slot, turning a panic into an error.
func (s *Service) run(ctx context.Context, def Definition, args Args) (res Result, err error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return Result{}, err
		}
		defer s.limiter.Release()
	}

	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("tool panicked", "tool", def.Name, "panic", r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	return def.Run(ctx, s.fetcher, args)
}

func (s *Service) record(ctx context.Context, out Outcome, res Result) {
	status := audit.StatusOK
	if out.Failed() {
		status = audit.StatusError
	}

	// The caller's context may already be done; the audit row still belongs
	// to this call.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.recorder.RecordCall(recCtx, audit.Call{
		ID:        out.CallID,
		Tool:      out.Tool,
		DocID:     res.Source.ID,
		GID:       res.Source.GID,
		Status:    status,
		ErrorCode: out.Code,
		Rows:      out.Rows,
		Duration:  out.Duration,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("audit record failed", "error", err)
	}
}
