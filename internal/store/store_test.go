package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-admin/internal/catalog"
	"airline-admin/internal/dbexec"
	"airline-admin/internal/query"
)

var userColumns = []string{"userid", "firstname", "lastname", "userroleid", "password"}

var ticketColumns = []string{"ticketid", "flightid", "passengerid", "ticketnumber", "bookingdate", "seatnumber", "class", "price"}

const usersCountSQL = `SELECT COUNT(*) FROM (SELECT "userid", "firstname", "lastname", "userroleid", "password" FROM "airline"."users") AS filtered_rows`

const usersListSQL = `SELECT "userid", "firstname", "lastname", "userroleid", "password" FROM "airline"."users" ORDER BY "userid" ASC, "firstname" ASC, "lastname" ASC, "userroleid" ASC, "password" ASC`

func newTestStores(t *testing.T) (*Stores, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	executor := dbexec.NewStandardExecutor(db)
	runner := query.NewRunner(executor, nil)
	cat := catalog.New(executor, "airline", nil)

	return NewStores(runner, cat, nil, Config{Schema: "airline", PageSize: 50}), mock
}

func expectProbe(mock sqlmock.Sqlmock, table string, columns ...string) {
	probe := fmt.Sprintf(`SELECT * FROM "airline"."%s" WHERE 1 = 0`, table)
	mock.ExpectQuery(regexp.QuoteMeta(probe)).WillReturnRows(sqlmock.NewRows(columns))
}

func TestUsersListFirstPage(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", "UserID", "FirstName", "LastName", "UserRoleID", "Password")
	mock.ExpectQuery(regexp.QuoteMeta(usersCountSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
	mock.ExpectQuery(regexp.QuoteMeta(usersListSQL + " LIMIT 50 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice", "Alice", "Anderson", int64(1), "secret"))

	listing, err := stores.Users.List(context.Background(), ListRequest{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, userColumns, listing.Columns)
	require.Len(t, listing.Rows, 1)
	assert.Equal(t, "alice", listing.Rows[0]["userid"])

	assert.Equal(t, 1, listing.Page.Number)
	assert.Equal(t, 3, listing.Page.TotalPages)
	assert.Equal(t, 120, listing.Page.TotalRows)
	assert.False(t, listing.Page.HasPrev)
	assert.True(t, listing.Page.HasNext)

	assert.Equal(t, "userid", listing.Sort.Column)
	assert.Equal(t, query.DirectionAsc, listing.Sort.Direction)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersListClampsOutOfRangePage(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)
	mock.ExpectQuery(regexp.QuoteMeta(usersCountSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
	mock.ExpectQuery(regexp.QuoteMeta(usersListSQL + " LIMIT 50 OFFSET 100")).
		WillReturnRows(sqlmock.NewRows(userColumns))

	listing, err := stores.Users.List(context.Background(), ListRequest{Page: 999})
	require.NoError(t, err)

	assert.Equal(t, 999, listing.Page.Requested)
	assert.Equal(t, 3, listing.Page.Number)
	assert.True(t, listing.Page.Clamped())
	assert.True(t, listing.Page.HasPrev)
	assert.False(t, listing.Page.HasNext)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersListWithSearch(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)

	countSQL := `SELECT COUNT(*) FROM (SELECT "userid", "firstname", "lastname", "userroleid", "password" FROM "airline"."users" WHERE lower("firstname") LIKE $1) AS filtered_rows`
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WithArgs("%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	listSQL := `SELECT "userid", "firstname", "lastname", "userroleid", "password" FROM "airline"."users" WHERE lower("firstname") LIKE $1 ORDER BY "userid" ASC, "firstname" ASC, "lastname" ASC, "userroleid" ASC, "password" ASC LIMIT 50 OFFSET 0`
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WithArgs("%ann%").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("ann", "Ann", "Able", int64(2), "pw").
			AddRow("hanna", "Hanna", "Hill", int64(2), "pw"))

	listing, err := stores.Users.List(context.Background(), ListRequest{
		Page:   1,
		Search: &SearchRequest{Attribute: "FirstName", Operator: query.OpLike, Term: "Ann"},
	})
	require.NoError(t, err)

	assert.Len(t, listing.Rows, 2)
	assert.Equal(t, 1, listing.Page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersListRejectsUnknownSearchAttribute(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)

	_, err := stores.Users.List(context.Background(), ListRequest{
		Search: &SearchRequest{Attribute: `evil"; DROP TABLE users; --`, Operator: query.OpEqual, Term: "x"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrUnknownAttribute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersListReportsDatabaseFailure(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)
	mock.ExpectQuery(regexp.QuoteMeta(usersCountSQL)).
		WillReturnError(sql.ErrConnDone)

	listing, err := stores.Users.List(context.Background(), ListRequest{Page: 1})
	require.Error(t, err)
	assert.Nil(t, listing)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestUsersGet(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)

	getSQL := `SELECT "userid", "firstname", "lastname", "userroleid", "password" FROM "airline"."users" WHERE lower("userid") = $1 ORDER BY "userid" ASC, "firstname" ASC, "lastname" ASC, "userroleid" ASC, "password" ASC LIMIT 1 OFFSET 0`
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice", "Alice", "Anderson", int64(1), "secret"))

	row, err := stores.Users.Get(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", row["firstname"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersGetNotFound(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)
	mock.ExpectQuery(`SELECT .+ FROM "airline"\."users" WHERE `).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := stores.Users.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRejectsUnknownColumn(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "users", userColumns...)

	_, err := stores.Users.update(context.Background(), "bob", map[string]interface{}{
		`bogus"; DROP TABLE users; --`: "x",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrUnknownAttribute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRegistry(t *testing.T) {
	stores, _ := newTestStores(t)

	for _, table := range []string{"users", "Tickets", "FLIGHTS", "passengers", "userroles"} {
		_, err := stores.Listing(table)
		assert.NoError(t, err, table)
	}

	_, err := stores.Listing("aircraft")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTable)

	assert.Equal(t, []string{"flights", "passengers", "tickets", "userroles", "users"}, stores.Tables())
}

func TestFieldHelpers(t *testing.T) {
	row := map[string]interface{}{
		"name":    "Ann",
		"int64":   int64(7),
		"int32":   int32(7),
		"int":     7,
		"float":   float64(7),
		"numeric": "7",
		"junk":    "seven",
	}

	assert.Equal(t, "Ann", stringField(row, "name"))
	assert.Equal(t, "", stringField(row, "missing"))
	for _, key := range []string{"int64", "int32", "int", "float", "numeric"} {
		assert.Equal(t, int64(7), intField(row, key), key)
	}
	assert.Equal(t, int64(0), intField(row, "junk"))
	assert.Equal(t, int64(0), intField(row, "missing"))
}
