package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/internal/user/entity"
	"github.com/meristem/authcore/pkg/database"
)

// UserRepo provides data access for the users table. Every method takes the
// caller's Querier so lookups and writes compose into one transaction.
type UserRepo struct{}

func NewUserRepo() *UserRepo { return &UserRepo{} }

// EnsureSchema creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  user_id uuid PRIMARY KEY,
  email text NOT NULL UNIQUE,
  name text NOT NULL
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// ByEmail returns the user with the given email address.
func (r *UserRepo) ByEmail(ctx context.Context, q database.Querier, email string) (*entity.User, error) {
	const query = `SELECT user_id, email, name FROM users WHERE email=$1`
	var u entity.User
	if err := sqlx.GetContext(ctx, q, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user", "email "+email)
		}
		return nil, err
	}
	return &u, nil
}

// ByID returns the user with the given identifier.
func (r *UserRepo) ByID(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.User, error) {
	const query = `SELECT user_id, email, name FROM users WHERE user_id=$1`
	var u entity.User
	if err := sqlx.GetContext(ctx, q, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, err
	}
	return &u, nil
}

// Insert persists a new user row.
func (r *UserRepo) Insert(ctx context.Context, q database.Querier, u *entity.User) error {
	const query = `INSERT INTO users (user_id, email, name) VALUES ($1, $2, $3)`
	if _, err := q.ExecContext(ctx, query, u.ID, u.Email, u.Name); err != nil {
		if database.IsUniqueViolation(err, "") {
			return &apperrors.ConflictError{Message: "user with email " + u.Email + " already exists"}
		}
		return err
	}
	return nil
}
