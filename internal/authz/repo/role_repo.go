package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/meristem/authcore/internal/authz/entity"
	"github.com/meristem/authcore/pkg/database"
)

// RoleRepo provides data access for roles and their privilege sets. Rows in
// role_privileges are written once at role creation and never updated.
type RoleRepo struct{}

func NewRoleRepo() *RoleRepo { return &RoleRepo{} }

// EnsureSchema creates the role tables if not exists (idempotent).
// user_roles carries direct role grants, so a user who belongs to no group
// yet can still hold the privilege that lets them create one.
func (r *RoleRepo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS roles (
  role_id uuid PRIMARY KEY,
  name text NOT NULL
);
CREATE TABLE IF NOT EXISTS role_privileges (
  role_id uuid NOT NULL REFERENCES roles(role_id),
  privilege_id uuid NOT NULL REFERENCES privileges(privilege_id),
  PRIMARY KEY (role_id, privilege_id)
);
CREATE TABLE IF NOT EXISTS user_roles (
  user_id uuid NOT NULL REFERENCES users(user_id),
  role_id uuid NOT NULL REFERENCES roles(role_id),
  PRIMARY KEY (user_id, role_id)
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// Insert persists a role together with its privilege set.
func (r *RoleRepo) Insert(ctx context.Context, q database.Querier, role *entity.Role) error {
	const roleQuery = `INSERT INTO roles (role_id, name) VALUES ($1, $2)`
	if _, err := q.ExecContext(ctx, roleQuery, role.ID, role.Name); err != nil {
		return err
	}
	const privQuery = `INSERT INTO role_privileges (role_id, privilege_id) VALUES ($1, $2)`
	for _, p := range role.Privileges {
		if _, err := q.ExecContext(ctx, privQuery, role.ID, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// GrantUserRole binds a role directly to a user.
func (r *RoleRepo) GrantUserRole(ctx context.Context, q database.Querier, userID, roleID uuid.UUID) error {
	const query = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := q.ExecContext(ctx, query, userID, roleID)
	return err
}
