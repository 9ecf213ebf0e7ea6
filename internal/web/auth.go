package web

import (
	"errors"
	"log/slog"
	"net/http"

	"airline-admin/internal/logging"
	"airline-admin/internal/middleware"
	"airline-admin/internal/store"
)

// databaseErrText is the user-facing message for any database failure on
// the login and search paths.
const databaseErrText = "Error connecting to database - Invalid credentials in config?"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "welcome", s.page(w, r, "Welcome", "home"))
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFrom(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, r, "login", s.page(w, r, "Login", ""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	userID := r.PostFormValue("userid")
	password := r.PostFormValue("password")

	account, err := s.stores.Auth.CheckLogin(r.Context(), userID, password)
	if err != nil {
		message := databaseErrText
		if errors.Is(err, store.ErrBadCredentials) {
			message = "There was an error logging you in"
		}
		s.redirectFlash(w, r, message, "/login", http.StatusSeeOther)
		return
	}

	session := s.sessions.Session(r)
	session.Values[middleware.SessionKeyUserID] = account.UserID
	session.Values[middleware.SessionKeyName] = account.FirstName
	session.Values[middleware.SessionKeyLoggedIn] = true
	session.Values[middleware.SessionKeyIsAdmin] = account.Admin
	if err := session.Save(r, w); err != nil {
		logging.FromContext(r.Context()).Error("failed to save login session",
			slog.String("userid", account.UserID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("user logged in",
		slog.String("userid", account.UserID),
		slog.String("role", account.RoleName),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Session(r)
	session.Values[middleware.SessionKeyLoggedIn] = false
	session.AddFlash("You have been logged out")
	if err := session.Save(r, w); err != nil {
		logging.FromContext(r.Context()).Warn("failed to save logout session",
			slog.String("error", err.Error()),
		)
	}

	if s.sessionMetrics != nil {
		s.sessionMetrics.RecordLogout(r.Context())
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
