package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meristem/authcore/internal/authz/entity"
	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/pkg/database"
)

// GroupRepo provides data access for groups, memberships and group-role
// bindings.
type GroupRepo struct{}

func NewGroupRepo() *GroupRepo { return &GroupRepo{} }

// EnsureSchema creates the group tables if not exists (idempotent). The
// primary key on memberships.user_id is what holds membership exclusivity
// under concurrency: when two transactions race to enroll the same user, the
// second insert fails here no matter what the application read beforehand.
func (r *GroupRepo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS groups (
  group_id uuid PRIMARY KEY,
  name text NOT NULL
);
CREATE TABLE IF NOT EXISTS memberships (
  user_id uuid PRIMARY KEY REFERENCES users(user_id),
  group_id uuid NOT NULL REFERENCES groups(group_id)
);
CREATE TABLE IF NOT EXISTS group_roles (
  group_id uuid NOT NULL REFERENCES groups(group_id),
  role_id uuid NOT NULL REFERENCES roles(role_id),
  PRIMARY KEY (group_id, role_id)
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// InsertGroup persists a new group row.
func (r *GroupRepo) InsertGroup(ctx context.Context, q database.Querier, g *entity.Group) error {
	const query = `INSERT INTO groups (group_id, name) VALUES ($1, $2)`
	_, err := q.ExecContext(ctx, query, g.ID, g.Name)
	return err
}

// InsertMembership enrolls a user in a group. A unique violation means the
// user already belongs to one and surfaces as MembershipError.
func (r *GroupRepo) InsertMembership(ctx context.Context, q database.Querier, m *entity.Membership) error {
	const query = `INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)`
	if _, err := q.ExecContext(ctx, query, m.UserID, m.GroupID); err != nil {
		if database.IsUniqueViolation(err, "") {
			return &apperrors.MembershipError{UserID: m.UserID}
		}
		return err
	}
	return nil
}

// MembershipFor returns the user's active membership, or NotFoundError when
// the user belongs to no group.
func (r *GroupRepo) MembershipFor(ctx context.Context, q database.Querier, userID uuid.UUID) (*entity.Membership, error) {
	const query = `SELECT group_id, user_id FROM memberships WHERE user_id=$1`
	var m entity.Membership
	if err := sqlx.GetContext(ctx, q, &m, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("membership", userID)
		}
		return nil, err
	}
	return &m, nil
}

// BindRole attaches a role to a group.
func (r *GroupRepo) BindRole(ctx context.Context, q database.Querier, groupID, roleID uuid.UUID) error {
	const query = `INSERT INTO group_roles (group_id, role_id) VALUES ($1, $2)`
	if _, err := q.ExecContext(ctx, query, groupID, roleID); err != nil {
		if database.IsUniqueViolation(err, "") {
			return &apperrors.ConflictError{Message: "role already bound to group"}
		}
		return err
	}
	return nil
}
