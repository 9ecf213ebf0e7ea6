package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookieName = "airline_admin_session"

func newTestSessions(t *testing.T) (*Sessions, *sessions.CookieStore) {
	t.Helper()
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	return NewSessions(store, testCookieName, nil), store
}

// bakeSessionCookie runs a throwaway request through the store to produce a
// signed cookie carrying the given session values.
func bakeSessionCookie(t *testing.T, store *sessions.CookieStore, values map[interface{}]interface{}) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.Get(req, testCookieName)
	require.NoError(t, err)
	for key, value := range values {
		session.Values[key] = value
	}
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func loggedInCookie(t *testing.T, store *sessions.CookieStore, isAdmin bool) *http.Cookie {
	t.Helper()
	return bakeSessionCookie(t, store, map[interface{}]interface{}{
		SessionKeyLoggedIn: true,
		SessionKeyUserID:   "admin",
		SessionKeyName:     "Administrator",
		SessionKeyIsAdmin:  isAdmin,
	})
}

func TestIdentify_AnonymousWithoutCookie(t *testing.T) {
	sess, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	_, ok := sess.Identify(req)
	assert.False(t, ok)
}

func TestIdentify_ReadsSessionValues(t *testing.T) {
	sess, store := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(loggedInCookie(t, store, true))

	id, ok := sess.Identify(req)
	require.True(t, ok)
	assert.Equal(t, "admin", id.UserID)
	assert.Equal(t, "Administrator", id.Name)
	assert.True(t, id.IsAdmin)
}

func TestIdentify_RejectsCookieFromOtherSecret(t *testing.T) {
	sess, _ := newTestSessions(t)
	otherStore := sessions.NewCookieStore([]byte("ffffffffffffffffffffffffffffffff"))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(loggedInCookie(t, otherStore, true))

	_, ok := sess.Identify(req)
	assert.False(t, ok)
}

func TestWithIdentityMiddleware_AttachesIdentity(t *testing.T) {
	sess, store := newTestSessions(t)

	var seen Identity
	var seenOK bool
	handler := sess.WithIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(loggedInCookie(t, store, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, seenOK)
	assert.Equal(t, "admin", seen.UserID)
	assert.False(t, seen.IsAdmin)
}

func TestRequireLogin_RedirectsAnonymousToLogin(t *testing.T) {
	sess, _ := newTestSessions(t)

	handler := sess.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for anonymous requests")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/edit/alice", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireLogin_PassesLoggedInUser(t *testing.T) {
	sess, store := newTestSessions(t)

	handler := sess.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/edit/alice", nil)
	req.AddCookie(loggedInCookie(t, store, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_RedirectsAnonymousToLogin(t *testing.T) {
	sess, _ := newTestSessions(t)

	handler := sess.RequireAdmin("Only admins can update user details!")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for anonymous requests")
	}))

	req := httptest.NewRequest(http.MethodPost, "/users/update", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAdmin_FlashesAndRedirectsNonAdmin(t *testing.T) {
	sess, store := newTestSessions(t)

	handler := sess.RequireAdmin("Only admins can update user details!")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for non-admin requests")
	}))

	req := httptest.NewRequest(http.MethodPost, "/users/update", nil)
	req.AddCookie(loggedInCookie(t, store, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The rewritten cookie carries the flash for the next page load.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	followUp := httptest.NewRequest(http.MethodGet, "/", nil)
	followUp.AddCookie(cookies[0])
	session, err := store.Get(followUp, testCookieName)
	require.NoError(t, err)

	flashes := session.Flashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Only admins can update user details!", flashes[0])
}

func TestRequireAdmin_PassesAdmin(t *testing.T) {
	sess, store := newTestSessions(t)

	handler := sess.RequireAdmin("Only admins can add users!")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/add", nil)
	req.AddCookie(loggedInCookie(t, store, true))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireLogin_UsesContextIdentity(t *testing.T) {
	sess, _ := newTestSessions(t)

	handler := sess.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/edit/alice", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "admin"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
