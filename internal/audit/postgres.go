package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS pubsheet_calls (
	id          UUID PRIMARY KEY,
	tool        TEXT NOT NULL,
	doc_id      TEXT,
	gid         TEXT,
	status      TEXT NOT NULL,
	error_code  TEXT,
	result_rows INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS pubsheet_calls_created_at_idx
	ON pubsheet_calls (created_at DESC)`

const insertCallSQL = `
INSERT INTO pubsheet_calls
	(id, tool, doc_id, gid, status, error_code, result_rows, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const recentCallsSQL = `
SELECT id, tool, doc_id, gid, status, error_code, result_rows, duration_ms, created_at
FROM pubsheet_calls
ORDER BY created_at DESC
LIMIT $1`

// DBTX is the subset of *pgxpool.Pool used by PGRecorder.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGRecorder writes calls to PostgreSQL.
type PGRecorder struct {
	db DBTX
}

// NewPGRecorder returns a recorder backed by db.
func NewPGRecorder(db DBTX) *PGRecorder {
	return &PGRecorder{db: db}
}

// EnsureSchema creates the calls table and its index if missing.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	}
	return nil
}

// RecordCall inserts c. A zero ID or CreatedAt is filled in.
func (r *PGRecorder) RecordCall(ctx context.Context, c Call) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, insertCallSQL,
		pgtype.UUID{Bytes: c.ID, Valid: true},
		c.Tool,
		toPgText(c.DocID),
		toPgText(c.GID),
		c.Status,
		toPgText(c.ErrorCode),
		int32(c.Rows),
		c.DurationMS(),
		pgtype.Timestamptz{Time: c.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record call %s: %w", c.ID, err)
	}
	return nil
}

// Recent returns up to limit calls, newest first.
func (r *PGRecorder) Recent(ctx context.Context, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, recentCallsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent calls: %w", err)
	}

	calls, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Call, error) {
		var (
			id         pgtype.UUID
			tool       string
			docID      pgtype.Text
			gid        pgtype.Text
			status     string
			errorCode  pgtype.Text
			resultRows int32
			durationMS int64
			createdAt  pgtype.Timestamptz
		)
		if err := row.Scan(&id, &tool, &docID, &gid, &status, &errorCode, &resultRows, &durationMS, &createdAt); err != nil {
			return Call{}, err
		}
		return Call{
			ID:        uuid.UUID(id.Bytes),
			Tool:      tool,
			DocID:     docID.String,
			GID:       gid.String,
			Status:    status,
			ErrorCode: errorCode.String,
			Rows:      int(resultRows),
			Duration:  time.Duration(durationMS) * time.Millisecond,
			CreatedAt: createdAt.Time,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan recent calls: %w", err)
	}
	return calls, nil
}

// toPgText converts an empty string to SQL NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
