package web

import (
	"database/sql"
	"net/http"
	"net/url"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-admin/internal/middleware"
)

const loginSQL = `SELECT * FROM "airline"."users" JOIN "airline"."userroles" ON ("users"."userroleid" = "userroles"."userroleid") WHERE "users"."userid" = $1 AND "users"."password" = $2`

var loginColumns = []string{"userid", "firstname", "lastname", "userroleid", "password", "rolename"}

func TestLoginSuccessSetsSessionAndRedirects(t *testing.T) {
	app := newTestApp(t)

	app.mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "secret").
		WillReturnRows(sqlmock.NewRows(loginColumns).
			AddRow("alice", "Alice", "Anderson", int64(1), "secret", "Administrator"))

	rec := app.postForm(t, "/login", url.Values{
		"userid":   {"alice"},
		"password": {"secret"},
	}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	session := app.sessionFromResponse(t, rec)
	assert.Equal(t, true, session.Values[middleware.SessionKeyLoggedIn])
	assert.Equal(t, "alice", session.Values[middleware.SessionKeyUserID])
	assert.Equal(t, "Alice", session.Values[middleware.SessionKeyName])
	assert.Equal(t, true, session.Values[middleware.SessionKeyIsAdmin])

	assert.NoError(t, app.mock.ExpectationsWereMet())
}

func TestLoginBadCredentialsFlashes(t *testing.T) {
	app := newTestApp(t)

	app.mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "wrong").
		WillReturnRows(sqlmock.NewRows(loginColumns))

	rec := app.postForm(t, "/login", url.Values{
		"userid":   {"alice"},
		"password": {"wrong"},
	}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, []interface{}{"There was an error logging you in"}, app.flashes(t, rec))
}

func TestLoginDatabaseErrorFlashes(t *testing.T) {
	app := newTestApp(t)

	app.mock.ExpectQuery(regexp.QuoteMeta(loginSQL)).
		WithArgs("alice", "secret").
		WillReturnError(sql.ErrConnDone)

	rec := app.postForm(t, "/login", url.Values{
		"userid":   {"alice"},
		"password": {"secret"},
	}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, []interface{}{databaseErrText}, app.flashes(t, rec))
}

func TestLoginFormRendersForAnonymous(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/login", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestLoginFormRedirectsWhenLoggedIn(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/login", app.loggedInCookie(t, false))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogoutClearsLoginAndFlashes(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/logout", app.loggedInCookie(t, true))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	session := app.sessionFromResponse(t, rec)
	assert.Equal(t, false, session.Values[middleware.SessionKeyLoggedIn])
	assert.Equal(t, []interface{}{"You have been logged out"}, session.Flashes())
}

func TestIndexGreetsLoggedInUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/", app.loggedInCookie(t, true))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, Alice")
	assert.Contains(t, body, "Alice (admin)")
	assert.Contains(t, body, `href="/users/add"`)
}

func TestIndexHidesAdminLinksFromStaff(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/", app.loggedInCookie(t, false))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, `href="/users/add"`)
	assert.NotContains(t, body, `href="/tickets/add"`)
}
