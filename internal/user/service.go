package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/internal/user/entity"
	userrepo "github.com/meristem/authcore/internal/user/repo"
	"github.com/meristem/authcore/pkg/database"
	"github.com/meristem/authcore/pkg/utilities"
)

// UserStore is the persistence surface Directory needs.
type UserStore interface {
	ByEmail(ctx context.Context, q database.Querier, email string) (*entity.User, error)
	ByID(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.User, error)
	Insert(ctx context.Context, q database.Querier, u *entity.User) error
}

// CredentialStore is the persistence surface CredentialService needs.
type CredentialStore interface {
	Upsert(ctx context.Context, q database.Querier, userID uuid.UUID, hash string) error
	HashFor(ctx context.Context, q database.Querier, userID uuid.UUID) (string, error)
}

// Directory maps identity keys (email, opaque id) to User records.
type Directory struct {
	store UserStore
	newID utilities.IDGenerator
}

// NewDirectory builds a Directory. A nil store or generator selects the
// production implementation.
func NewDirectory(store UserStore, newID utilities.IDGenerator) *Directory {
	if store == nil {
		store = userrepo.NewUserRepo()
	}
	if newID == nil {
		newID = utilities.NewUUID
	}
	return &Directory{store: store, newID: newID}
}

// ByEmail returns the user registered under email, or NotFoundError.
func (d *Directory) ByEmail(ctx context.Context, q database.Querier, email string) (*entity.User, error) {
	return d.store.ByEmail(ctx, q, email)
}

// ByID returns the user with the given id, or NotFoundError.
func (d *Directory) ByID(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.User, error) {
	return d.store.ByID(ctx, q, id)
}

// Create allocates a fresh identifier, persists the record inside the
// caller's transaction and returns it.
func (d *Directory) Create(ctx context.Context, q database.Querier, email, name string) (*entity.User, error) {
	u := &entity.User{ID: d.newID(), Email: strings.ToLower(strings.TrimSpace(email)), Name: name}
	if err := d.store.Insert(ctx, q, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CredentialService hashes and verifies user secrets. All paths run through
// one memory-hard KDF; there is no alternate scheme for any caller.
type CredentialService struct {
	store  CredentialStore
	hasher PasswordHasher
}

// NewCredentialService builds a CredentialService. A nil store or hasher
// selects the production implementation.
func NewCredentialService(store CredentialStore, hasher PasswordHasher) *CredentialService {
	if store == nil {
		store = userrepo.NewCredentialRepo()
	}
	if hasher == nil {
		hasher = NewArgon2Hasher(DefaultArgon2Params())
	}
	return &CredentialService{store: store, hasher: hasher}
}

// SetPassword hashes the secret and upserts it for the user inside the
// caller's transaction, atomically replacing any prior hash.
func (s *CredentialService) SetPassword(ctx context.Context, q database.Querier, u entity.User, secret string) (*entity.Credential, error) {
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, q, u.ID, hash); err != nil {
		return nil, err
	}
	return &entity.Credential{UserID: u.ID, Hash: hash}, nil
}

// VerifyLogin checks the secret against the user's stored hash. A blank
// secret or a user without a credential is false without running the KDF; a
// stored credential always gets the full constant-time comparison, and a
// mismatch is false, never an error.
func (s *CredentialService) VerifyLogin(ctx context.Context, q database.Querier, u entity.User, secret string) (bool, error) {
	if strings.TrimSpace(secret) == "" {
		return false, nil
	}
	hash, err := s.store.HashFor(ctx, q, u.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.hasher.Verify(hash, secret), nil
}
