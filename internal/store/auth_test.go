package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginSQL = `SELECT * FROM "airline"."users" JOIN "airline"."userroles" ON ("users"."userroleid" = "userroles"."userroleid") WHERE "users"."userid" = $1 AND "users"."password" = $2`

var loginColumns = []string{"userid", "firstname", "lastname", "userroleid", "password", "rolename"}

func TestCheckLoginSuccess(t *testing.T) {
	stores, mock := newTestStores(t)

	mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "secret").
		WillReturnRows(sqlmock.NewRows(loginColumns).
			AddRow("alice", "Alice", "Anderson", int64(1), "secret", "Administrator"))

	account, err := stores.Auth.CheckLogin(context.Background(), "alice", "secret")
	require.NoError(t, err)

	assert.Equal(t, "alice", account.UserID)
	assert.Equal(t, "Alice", account.FirstName)
	assert.Equal(t, "Anderson", account.LastName)
	assert.Equal(t, int64(1), account.RoleID)
	assert.Equal(t, "Administrator", account.RoleName)
	assert.True(t, account.Admin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginStaffIsNotAdmin(t *testing.T) {
	stores, mock := newTestStores(t)

	mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("bob", "pw").
		WillReturnRows(sqlmock.NewRows(loginColumns).
			AddRow("bob", "Bob", "Brown", int64(2), "pw", "Staff"))

	account, err := stores.Auth.CheckLogin(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.False(t, account.Admin)
}

func TestCheckLoginBadCredentials(t *testing.T) {
	stores, mock := newTestStores(t)

	mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "wrong").
		WillReturnRows(sqlmock.NewRows(loginColumns))

	account, err := stores.Auth.CheckLogin(context.Background(), "alice", "wrong")
	assert.Nil(t, account)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestCheckLoginDatabaseErrorIsNotBadCredentials(t *testing.T) {
	stores, mock := newTestStores(t)

	mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "secret").
		WillReturnError(sql.ErrConnDone)

	account, err := stores.Auth.CheckLogin(context.Background(), "alice", "secret")
	assert.Nil(t, account)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrBadCredentials)
}
