// Package audit records tool calls.
//
// Recording is optional: without a database every call goes to NopRecorder.
// With one, PGRecorder writes a row per call to pubsheet_calls.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Call statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Call is one tool invocation.
type Call struct {
	ID        uuid.UUID     `json:"id"`
	Tool      string        `json:"tool"`
	DocID     string        `json:"docId,omitempty"`
	GID       string        `json:"gid,omitempty"`
	Status    string        `json:"status"`
	ErrorCode string        `json:"errorCode,omitempty"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
}

// DurationMS is Duration in whole milliseconds.
func (c Call) DurationMS() int64 {
	return c.Duration.Milliseconds()
}

// MarshalJSON adds durationMs.
func (c Call) MarshalJSON() ([]byte, error) {
	type plain Call
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"durationMs"`
	}{plain(c), c.DurationMS()})
}

// Recorder persists calls.
type Recorder interface {
	RecordCall(ctx context.Context, c Call) error
}

// NopRecorder discards every call.
type NopRecorder struct{}

func (NopRecorder) RecordCall(context.Context, Call) error { return nil }
