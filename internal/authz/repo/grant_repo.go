package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meristem/authcore/internal/authz/entity"
	"github.com/meristem/authcore/pkg/database"
)

// GrantRepo resolves which privileges a user effectively holds: the union of
// roles bound directly to the user and roles bound to the user's group.
type GrantRepo struct{}

func NewGrantRepo() *GrantRepo { return &GrantRepo{} }

// HasPrivilege reports whether the user currently holds the named privilege.
// One query against live rows; nothing is cached between calls.
func (r *GrantRepo) HasPrivilege(ctx context.Context, q database.Querier, userID uuid.UUID, privilege string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1
  FROM user_roles ur
  JOIN role_privileges rp ON rp.role_id = ur.role_id
  JOIN privileges p ON p.privilege_id = rp.privilege_id
  WHERE ur.user_id = $1 AND p.name = $2
  UNION ALL
  SELECT 1
  FROM memberships m
  JOIN group_roles gr ON gr.group_id = m.group_id
  JOIN role_privileges rp ON rp.role_id = gr.role_id
  JOIN privileges p ON p.privilege_id = rp.privilege_id
  WHERE m.user_id = $1 AND p.name = $2
)`
	var ok bool
	if err := sqlx.GetContext(ctx, q, &ok, query, userID, privilege); err != nil {
		return false, err
	}
	return ok, nil
}

// ListPrivileges returns every privilege the user holds through either path.
func (r *GrantRepo) ListPrivileges(ctx context.Context, q database.Querier, userID uuid.UUID) ([]entity.Privilege, error) {
	const query = `
SELECT DISTINCT p.privilege_id, p.name
FROM privileges p
JOIN role_privileges rp ON rp.privilege_id = p.privilege_id
WHERE rp.role_id IN (
  SELECT role_id FROM user_roles WHERE user_id = $1
  UNION
  SELECT gr.role_id FROM group_roles gr
  JOIN memberships m ON m.group_id = gr.group_id
  WHERE m.user_id = $1
)
ORDER BY p.name`
	var privs []entity.Privilege
	if err := sqlx.SelectContext(ctx, q, &privs, query, userID); err != nil {
		return nil, err
	}
	return privs, nil
}
