package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"airline-admin/internal/observability"

	"github.com/gorilla/sessions"
)

// Session value keys shared between the login handlers and the guards.
const (
	SessionKeyUserID   = "userid"
	SessionKeyName     = "name"
	SessionKeyLoggedIn = "logged_in"
	SessionKeyIsAdmin  = "isadmin"
)

// Identity is the logged-in user attached to a request.
type Identity struct {
	UserID  string
	Name    string
	IsAdmin bool
}

type identityContextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFrom extracts the identity from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Sessions resolves the browser session cookie into a request identity and
// enforces the login and admin gates. metrics may be nil.
type Sessions struct {
	store      sessions.Store
	cookieName string
	loginPath  string
	metrics    *observability.SessionMetrics
}

// NewSessions creates the session resolver for the given cookie store.
func NewSessions(store sessions.Store, cookieName string, metrics *observability.SessionMetrics) *Sessions {
	return &Sessions{
		store:      store,
		cookieName: cookieName,
		loginPath:  "/login",
		metrics:    metrics,
	}
}

// Session returns the request's session bag. A missing or undecodable cookie
// yields a fresh session, so callers never see an error here.
func (s *Sessions) Session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, s.cookieName)
	if err != nil {
		// Stale cookies and secret rotations land here; the request simply
		// starts over anonymous.
		slog.Default().Debug("session cookie rejected",
			slog.String("error", err.Error()),
		)
	}
	return session
}

// Identify reads the logged-in user from the session.
func (s *Sessions) Identify(r *http.Request) (Identity, bool) {
	session := s.Session(r)

	loggedIn, _ := session.Values[SessionKeyLoggedIn].(bool)
	if !loggedIn {
		return Identity{}, false
	}

	userID, _ := session.Values[SessionKeyUserID].(string)
	name, _ := session.Values[SessionKeyName].(string)
	isAdmin, _ := session.Values[SessionKeyIsAdmin].(bool)
	return Identity{UserID: userID, Name: name, IsAdmin: isAdmin}, true
}

// WithIdentityMiddleware attaches the session identity to the request context
// so handlers and later middleware read it without re-decoding the cookie.
func (s *Sessions) WithIdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := s.Identify(r); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin sends anonymous requests to the login page.
func (s *Sessions) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.identify(r); !ok {
			s.recordDenied(r, "login_required")
			http.Redirect(w, r, s.loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a route to administrators. Anonymous requests go to the
// login page; logged-in non-admins get the flash message and land back on the
// index page.
func (s *Sessions) RequireAdmin(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := s.identify(r)
			if !ok {
				s.recordDenied(r, "login_required")
				http.Redirect(w, r, s.loginPath, http.StatusSeeOther)
				return
			}

			if !id.IsAdmin {
				s.recordDenied(r, "admin_required")
				session := s.Session(r)
				session.AddFlash(message)
				if err := session.Save(r, w); err != nil {
					slog.Default().Warn("failed to save session flash",
						slog.String("error", err.Error()),
					)
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identify prefers the identity already resolved into the context and falls
// back to decoding the cookie, so the gates work in either middleware order.
func (s *Sessions) identify(r *http.Request) (Identity, bool) {
	if id, ok := IdentityFrom(r.Context()); ok {
		return id, true
	}
	return s.Identify(r)
}

func (s *Sessions) recordDenied(r *http.Request, reason string) {
	if s.metrics != nil {
		s.metrics.RecordDenied(r.Context(), r.URL.Path, reason)
	}
}
