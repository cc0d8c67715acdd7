// Package audit records the outcome of every gated mutation so operators can
// reconstruct who attempted what, in order.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/meristem/authcore/pkg/database"
)

// Entry is one audit row. entry_id is a KSUID, so lexical order is creation
// order; request_id groups the entries produced by a single request.
type Entry struct {
	ID        string         `db:"entry_id"`
	RequestID string         `db:"request_id"`
	UserID    uuid.UUID      `db:"user_id"`
	Action    string         `db:"action"`
	Status    string         `db:"status"`
	At        time.Time      `db:"at"`
	Detail    sql.NullString `db:"detail"`
}

const (
	StatusAllowed = "ALLOWED"
	StatusDenied  = "DENIED"
)

// Repo provides data access for the audit log.
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }

// EnsureSchema creates the audit table if not exists (idempotent).
func (r *Repo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS audit_log (
  entry_id varchar(32) PRIMARY KEY,
  request_id varchar(32) NOT NULL DEFAULT '',
  user_id uuid NOT NULL,
  action text NOT NULL,
  status text NOT NULL,
  at timestamptz NOT NULL DEFAULT NOW(),
  detail text
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// Insert appends one entry.
func (r *Repo) Insert(ctx context.Context, q database.Querier, e *Entry) error {
	const query = `
INSERT INTO audit_log (entry_id, request_id, user_id, action, status, at, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(ctx, query, e.ID, e.RequestID, e.UserID, e.Action, e.Status, e.At, e.Detail)
	return err
}
