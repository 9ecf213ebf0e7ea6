package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"airline-admin/internal/logging"
	"airline-admin/internal/store"
)

// Admin gate messages for the user pages.
const (
	msgOnlyAdminsUpdateUsers = "Only admins can update user details!"
	msgOnlyAdminsAddUsers    = "Only admins can add users!"
)

// defaultUserRoleID backs the role selector and fills in when an add form
// posts no usable role.
const defaultUserRoleID = 1

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	s.serveListing(w, r, "users", "userid", "List Contents of Users", "Error fetching users", s.stores.Users)
}

func (s *Server) handleUserSingle(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userid")
	s.serveSingle(w, r, "users", "userid", "List Single userid for users", userID, userID, s.stores.Users)
}

func (s *Server) handleUsersConsolidated(w http.ResponseWriter, r *http.Request) {
	s.serveResultTable(w, r, "List Contents of Users join Userroles", "users",
		"Error, there are no rows in users_userroles_listdict",
		s.stores.Users.ListConsolidated)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	s.serveResultTable(w, r, "User Stats", "users",
		"Error, there are no rows in user_stats",
		s.stores.Users.Stats)
}

func (s *Server) handleUsersSearchForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "search", searchPage{
		basePage: s.page(w, r, "Users search", "users"),
		Table:    "users",
	})
}

func (s *Server) handleUsersSearch(w http.ResponseWriter, r *http.Request) {
	s.serveSearch(w, r, "users", "userid", "Users search", s.stores.Users)
}

func (s *Server) handleUserEdit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userid")

	row, err := s.stores.Users.Get(r.Context(), userID)
	if err != nil {
		s.redirectFlash(w, r,
			fmt.Sprintf("Error: No users matching id '%s'", userID),
			"/consolidated/users", http.StatusFound)
		return
	}

	s.render(w, r, "user_form", userFormPage{
		basePage: s.page(w, r, "Edit user details", "users"),
		Editing:  true,
		Action:   "/users/update",
		User:     row,
		Roles:    s.roleOptions(r, intValue(row["userroleid"])),
	})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := r.PostForm

	if !form.Has("userid") {
		s.redirectFlash(w, r, "Can not update without a userid", "/users", http.StatusSeeOther)
		return
	}
	userID := form.Get("userid")

	fields := store.UserUpdate{
		FirstName: formStringPtr(form, "firstname"),
		LastName:  formStringPtr(form, "lastname"),
		RoleID:    formInt64Ptr(form, "userroleid"),
		Password:  formStringPtr(form, "password"),
	}
	if fields == (store.UserUpdate{}) {
		s.redirectFlash(w, r, "No updated values for user with userid", "/users", http.StatusSeeOther)
		return
	}

	target := "/users/" + url.PathEscape(userID)
	if _, err := s.stores.Users.Update(r.Context(), userID, fields); err != nil {
		s.redirectFlash(w, r, databaseErrText, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleUserAddForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "user_form", userFormPage{
		basePage: s.page(w, r, "Add user details", "users"),
		Action:   "/users/add",
		Roles:    s.roleOptions(r, defaultUserRoleID),
	})
}

func (s *Server) handleUserAdd(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := r.PostForm

	if !form.Has("userid") {
		s.redirectFlash(w, r, "Can not add user without a userid", "/users/add", http.StatusSeeOther)
		return
	}

	user := store.NewUser{
		UserID:    form.Get("userid"),
		FirstName: formString(form, "firstname", "Empty firstname"),
		LastName:  formString(form, "lastname", "Empty lastname"),
		RoleID:    formInt64(form, "userroleid", defaultUserRoleID),
		Password:  formString(form, "password", "blank"),
	}
	if err := s.stores.Users.Insert(r.Context(), user); err != nil {
		s.redirectFlash(w, r, "Error adding user", "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/users/"+url.PathEscape(user.UserID), http.StatusSeeOther)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userid")

	if _, err := s.stores.Users.Delete(r.Context(), userID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete user",
			slog.String("userid", userID),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, "/consolidated/users", http.StatusSeeOther)
}

// roleOptions loads the role selector entries, marking selected. A load
// failure logs and renders an empty selector rather than failing the
// form.
func (s *Server) roleOptions(r *http.Request, selected int64) []roleOption {
	roles, err := s.stores.Users.ListRoles(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to list user roles",
			slog.String("error", err.Error()),
		)
		return nil
	}

	options := make([]roleOption, 0, len(roles))
	for _, role := range roles {
		options = append(options, roleOption{Role: role, Selected: role.ID == selected})
	}
	return options
}
