package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/meristem/authcore/internal/authz/entity"
	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/pkg/database"
)

// PrivilegeRepo provides data access for the privilege catalog. The catalog
// is seeded externally; the core only references privileges by name.
type PrivilegeRepo struct{}

func NewPrivilegeRepo() *PrivilegeRepo { return &PrivilegeRepo{} }

// EnsureSchema creates the privileges table if not exists (idempotent).
func (r *PrivilegeRepo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS privileges (
  privilege_id uuid PRIMARY KEY,
  name text NOT NULL UNIQUE
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// ByName returns the privilege with the given name.
func (r *PrivilegeRepo) ByName(ctx context.Context, q database.Querier, name string) (*entity.Privilege, error) {
	const query = `SELECT privilege_id, name FROM privileges WHERE name=$1`
	var p entity.Privilege
	if err := sqlx.GetContext(ctx, q, &p, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("privilege", name)
		}
		return nil, err
	}
	return &p, nil
}

// Insert persists a new privilege.
func (r *PrivilegeRepo) Insert(ctx context.Context, q database.Querier, p *entity.Privilege) error {
	const query = `INSERT INTO privileges (privilege_id, name) VALUES ($1, $2)`
	if _, err := q.ExecContext(ctx, query, p.ID, p.Name); err != nil {
		if database.IsUniqueViolation(err, "") {
			return &apperrors.ConflictError{Message: "privilege " + p.Name + " already exists"}
		}
		return err
	}
	return nil
}
