package repo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meristem/authcore/internal/authz/entity"
	apperrors "github.com/meristem/authcore/internal/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var (
	userID  = uuid.MustParse("ecb52977-3004-469e-9428-2a1856725c7f")
	groupID = uuid.MustParse("d32611e3-07fc-4564-b56c-786c6db6de2b")
	roleID  = uuid.MustParse("9988c21d-f02f-4d45-8966-22c968ac2fbf")
)

func TestInsertMembershipMapsUniqueViolation(t *testing.T) {
	// the second transaction in a same-user race loses on the primary key
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)")).
		WithArgs(userID, groupID).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "memberships_pkey"})

	err := NewGroupRepo().InsertMembership(context.Background(), db, &entity.Membership{GroupID: groupID, UserID: userID})
	require.Error(t, err)
	assert.True(t, apperrors.IsMembership(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMembershipSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)")).
		WithArgs(userID, groupID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewGroupRepo().InsertMembership(context.Background(), db, &entity.Membership{GroupID: groupID, UserID: userID})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipForNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT group_id, user_id FROM memberships WHERE user_id=$1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "user_id"}))

	_, err := NewGroupRepo().MembershipFor(context.Background(), db, userID)
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipForFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT group_id, user_id FROM memberships WHERE user_id=$1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "user_id"}).AddRow(groupID.String(), userID.String()))

	m, err := NewGroupRepo().MembershipFor(context.Background(), db, userID)
	require.NoError(t, err)
	assert.Equal(t, &entity.Membership{GroupID: groupID, UserID: userID}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBindRoleMapsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO group_roles (group_id, role_id) VALUES ($1, $2)")).
		WithArgs(groupID, roleID).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "group_roles_pkey"})

	err := NewGroupRepo().BindRole(context.Background(), db, groupID, roleID)
	var ce *apperrors.ConflictError
	assert.ErrorAs(t, err, &ce)
	require.NoError(t, mock.ExpectationsWereMet())
}
