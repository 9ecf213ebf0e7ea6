package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"airline-admin/internal/catalog"
	"airline-admin/internal/query"
	"airline-admin/internal/sqlutil"
)

// userFormColumns is the insert column order for users rows.
var userFormColumns = []string{"userid", "firstname", "lastname", "userroleid", "password"}

// UsersStore serves the users table: listings, row CRUD, the
// consolidated role report and per-role counts.
type UsersStore struct {
	tableStore
}

// NewUsersStore creates the users store.
func NewUsersStore(runner *query.Runner, cat *catalog.Catalog, cfg Config) *UsersStore {
	return &UsersStore{newTableStore(runner, cat, cfg, "users", "userid")}
}

// List serves one page of users.
func (s *UsersStore) List(ctx context.Context, req ListRequest) (*Listing, error) {
	return s.list(ctx, req)
}

// Get returns the user row with the given id.
func (s *UsersStore) Get(ctx context.Context, userID string) (map[string]interface{}, error) {
	return s.get(ctx, userID)
}

// NewUser carries the form fields for a user insert.
type NewUser struct {
	UserID    string
	FirstName string
	LastName  string
	RoleID    int64
	Password  string
}

// Insert adds a user row.
func (s *UsersStore) Insert(ctx context.Context, u NewUser) error {
	return s.insert(ctx, userFormColumns, []interface{}{u.UserID, u.FirstName, u.LastName, u.RoleID, u.Password})
}

// UserUpdate carries the optional fields of a user update. Nil fields
// keep their current value.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	RoleID    *int64
	Password  *string
}

func (u UserUpdate) setMap() map[string]interface{} {
	set := make(map[string]interface{})
	if u.FirstName != nil {
		set["firstname"] = *u.FirstName
	}
	if u.LastName != nil {
		set["lastname"] = *u.LastName
	}
	if u.RoleID != nil {
		set["userroleid"] = *u.RoleID
	}
	if u.Password != nil {
		set["password"] = *u.Password
	}
	return set
}

// Update applies the present fields to one user row and reports how
// many rows changed.
func (s *UsersStore) Update(ctx context.Context, userID string, fields UserUpdate) (int64, error) {
	return s.update(ctx, userID, fields.setMap())
}

// Delete removes one user row.
func (s *UsersStore) Delete(ctx context.Context, userID string) (int64, error) {
	return s.deleteByKey(ctx, userID)
}

// ListConsolidated reports users joined with their roles, ordered by
// user id.
func (s *UsersStore) ListConsolidated(ctx context.Context) (*query.ResultSet, error) {
	sqlStr, args, err := sq.Select("*").
		From(sqlutil.QualifyTable(s.schema, "users")).
		Join(sqlutil.QualifyTable(s.schema, "userroles") + ` ON ("users"."userroleid" = "userroles"."userroleid")`).
		OrderBy(`"users"."userid" ASC`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build consolidated users query: %w", err)
	}

	return s.runner.Select(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
}

// Stats counts users per role.
func (s *UsersStore) Stats(ctx context.Context) (*query.ResultSet, error) {
	return s.stats(ctx, "userroleid")
}

// Role is one selectable user role.
type Role struct {
	ID   int64
	Name string
}

// ListRoles returns every role ordered by id, for the add and edit
// form selectors.
func (s *UsersStore) ListRoles(ctx context.Context) ([]Role, error) {
	sqlStr, args, err := sq.Select(`"userroleid"`, `"rolename"`).
		From(sqlutil.QualifyTable(s.schema, "userroles")).
		OrderBy(`"userroleid" ASC`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build roles query: %w", err)
	}

	result, err := s.runner.Select(ctx, "userroles", query.SQLQuery{SQL: sqlStr, Args: args})
	if err != nil {
		return nil, err
	}

	roles := make([]Role, 0, len(result.Rows))
	for _, row := range result.Rows {
		roles = append(roles, Role{
			ID:   intField(row, "userroleid"),
			Name: stringField(row, "rolename"),
		})
	}
	return roles, nil
}
