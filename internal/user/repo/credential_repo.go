package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/pkg/database"
)

// CredentialRepo provides data access for stored secret hashes.
type CredentialRepo struct{}

func NewCredentialRepo() *CredentialRepo { return &CredentialRepo{} }

// EnsureSchema creates the user_credentials table if not exists (idempotent).
func (r *CredentialRepo) EnsureSchema(ctx context.Context, q database.Querier) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS user_credentials (
  user_id uuid PRIMARY KEY REFERENCES users(user_id),
  password text NOT NULL
);
`
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// Upsert stores the hash for a user, replacing any previous one. A single
// statement, so the replacement can never be observed half-done.
func (r *CredentialRepo) Upsert(ctx context.Context, q database.Querier, userID uuid.UUID, hash string) error {
	const query = `
INSERT INTO user_credentials (user_id, password) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET password = EXCLUDED.password`
	_, err := q.ExecContext(ctx, query, userID, hash)
	return err
}

// HashFor returns the stored hash for a user, or NotFoundError when the user
// has no credential yet.
func (r *CredentialRepo) HashFor(ctx context.Context, q database.Querier, userID uuid.UUID) (string, error) {
	const query = `SELECT password FROM user_credentials WHERE user_id=$1`
	var hash string
	if err := sqlx.GetContext(ctx, q, &hash, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("credential", userID)
		}
		return "", err
	}
	return hash, nil
}
