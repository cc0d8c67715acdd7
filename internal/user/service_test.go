package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/internal/user/entity"
	"github.com/meristem/authcore/pkg/database"
)

// MockUserStore is a mock implementation of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ByEmail(ctx context.Context, q database.Querier, email string) (*entity.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserStore) ByID(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserStore) Insert(ctx context.Context, q database.Querier, u *entity.User) error {
	args := m.Called(ctx, q, u)
	return args.Error(0)
}

// MockCredentialStore is a mock implementation of CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Upsert(ctx context.Context, q database.Querier, userID uuid.UUID, hash string) error {
	args := m.Called(ctx, q, userID, hash)
	return args.Error(0)
}

func (m *MockCredentialStore) HashFor(ctx context.Context, q database.Querier, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, q, userID)
	return args.String(0), args.Error(1)
}

var testUser = entity.User{
	ID:    uuid.MustParse("ecb52977-3004-469e-9428-2a1856725c7f"),
	Email: "some@email.address",
	Name:  "a_test_user",
}

func TestVerifyLoginBlankSecret(t *testing.T) {
	store := new(MockCredentialStore)
	svc := NewCredentialService(store, NewArgon2Hasher(testParams()))

	for _, secret := range []string{"", "   ", "\t\n"} {
		ok, err := svc.VerifyLogin(context.Background(), nil, testUser, secret)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	// the no-op path must not touch the store at all
	store.AssertNotCalled(t, "HashFor", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyLoginNoCredential(t *testing.T) {
	store := new(MockCredentialStore)
	store.On("HashFor", mock.Anything, mock.Anything, testUser.ID).
		Return("", apperrors.NotFound("credential", testUser.ID))
	svc := NewCredentialService(store, NewArgon2Hasher(testParams()))

	ok, err := svc.VerifyLogin(context.Background(), nil, testUser, "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyLoginStoreError(t *testing.T) {
	store := new(MockCredentialStore)
	store.On("HashFor", mock.Anything, mock.Anything, testUser.ID).
		Return("", errors.New("connection reset"))
	svc := NewCredentialService(store, NewArgon2Hasher(testParams()))

	_, err := svc.VerifyLogin(context.Background(), nil, testUser, "anything")
	assert.Error(t, err)
}

func TestVerifyLoginMismatchIsFalseNotError(t *testing.T) {
	hasher := NewArgon2Hasher(testParams())
	stored, err := hasher.Hash("the-right-secret")
	require.NoError(t, err)

	store := new(MockCredentialStore)
	store.On("HashFor", mock.Anything, mock.Anything, testUser.ID).Return(stored, nil)
	svc := NewCredentialService(store, hasher)

	ok, err := svc.VerifyLogin(context.Background(), nil, testUser, "the-wrong-secret")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyLogin(context.Background(), nil, testUser, "the-right-secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetPasswordUpsertsArgon2Hash(t *testing.T) {
	store := new(MockCredentialStore)
	store.On("Upsert", mock.Anything, mock.Anything, testUser.ID, mock.MatchedBy(func(hash string) bool {
		return strings.HasPrefix(hash, "$argon2id$")
	})).Return(nil)
	svc := NewCredentialService(store, NewArgon2Hasher(testParams()))

	cred, err := svc.SetPassword(context.Background(), nil, testUser, "new-secret")
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, cred.UserID)
	assert.True(t, strings.HasPrefix(cred.Hash, "$argon2id$"))
	store.AssertExpectations(t)
}

// memCredentialStore is an in-memory CredentialStore for round-trip tests.
type memCredentialStore struct {
	hashes map[uuid.UUID]string
}

func (s *memCredentialStore) Upsert(_ context.Context, _ database.Querier, userID uuid.UUID, hash string) error {
	s.hashes[userID] = hash
	return nil
}

func (s *memCredentialStore) HashFor(_ context.Context, _ database.Querier, userID uuid.UUID) (string, error) {
	h, ok := s.hashes[userID]
	if !ok {
		return "", apperrors.NotFound("credential", userID)
	}
	return h, nil
}

func TestSetPasswordThenVerify(t *testing.T) {
	// round-trip through an in-memory store: set, verify, then overwrite
	store := &memCredentialStore{hashes: map[uuid.UUID]string{}}
	svc := NewCredentialService(store, NewArgon2Hasher(testParams()))

	_, err := svc.SetPassword(context.Background(), nil, testUser, "first")
	require.NoError(t, err)
	ok, err := svc.VerifyLogin(context.Background(), nil, testUser, "first")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.SetPassword(context.Background(), nil, testUser, "second")
	require.NoError(t, err)
	ok, err = svc.VerifyLogin(context.Background(), nil, testUser, "first")
	require.NoError(t, err)
	assert.False(t, ok, "old secret must stop verifying after the upsert")
	ok, err = svc.VerifyLogin(context.Background(), nil, testUser, "second")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirectoryCreateUsesInjectedGenerator(t *testing.T) {
	fixed := uuid.MustParse("d32611e3-07fc-4564-b56c-786c6db6de2b")
	store := new(MockUserStore)
	store.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.ID == fixed && u.Email == "new@email.address" && u.Name == "New User"
	})).Return(nil)
	dir := NewDirectory(store, func() uuid.UUID { return fixed })

	u, err := dir.Create(context.Background(), nil, "New@Email.Address ", "New User")
	require.NoError(t, err)
	assert.Equal(t, fixed, u.ID)
	assert.Equal(t, "new@email.address", u.Email)
	store.AssertExpectations(t)
}

func TestDirectoryLookupsPassThrough(t *testing.T) {
	store := new(MockUserStore)
	store.On("ByEmail", mock.Anything, mock.Anything, testUser.Email).Return(&testUser, nil)
	store.On("ByID", mock.Anything, mock.Anything, testUser.ID).
		Return(nil, apperrors.NotFound("user", testUser.ID))
	dir := NewDirectory(store, nil)

	u, err := dir.ByEmail(context.Background(), nil, testUser.Email)
	require.NoError(t, err)
	assert.Equal(t, testUser, *u)

	_, err = dir.ByID(context.Background(), nil, testUser.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
