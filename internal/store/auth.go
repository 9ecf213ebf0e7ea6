package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"airline-admin/internal/observability"
	"airline-admin/internal/query"
	"airline-admin/internal/sqlutil"
)

// AdminRoleName is the role whose members get the administrative
// surface.
const AdminRoleName = "Administrator"

// ErrBadCredentials reports a login attempt that matched no account. It
// is distinct from a database failure so callers can word their
// messages accordingly.
var ErrBadCredentials = errors.New("invalid userid or password")

// Account is the joined user and role row a successful login returns.
type Account struct {
	UserID    string
	FirstName string
	LastName  string
	RoleID    int64
	RoleName  string
	Admin     bool
}

// AuthStore checks credentials against the users table.
type AuthStore struct {
	schema  string
	runner  *query.Runner
	metrics *observability.SessionMetrics
}

// NewAuthStore creates the auth store. metrics may be nil.
func NewAuthStore(runner *query.Runner, schema string, metrics *observability.SessionMetrics) *AuthStore {
	return &AuthStore{schema: schema, runner: runner, metrics: metrics}
}

// CheckLogin looks up the account matching the credentials. It returns
// ErrBadCredentials when nothing matches and a wrapped database error
// when the lookup itself failed.
func (s *AuthStore) CheckLogin(ctx context.Context, userID, password string) (*Account, error) {
	if s.metrics != nil {
		s.metrics.RecordLoginAttempt(ctx)
	}

	sqlStr, args, err := sq.Select("*").
		From(sqlutil.QualifyTable(s.schema, "users")).
		Join(sqlutil.QualifyTable(s.schema, "userroles") + ` ON ("users"."userroleid" = "userroles"."userroleid")`).
		Where(sq.Eq{`"users"."userid"`: userID}).
		Where(sq.Eq{`"users"."password"`: password}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build login query: %w", err)
	}

	result, err := s.runner.Select(ctx, "users", query.SQLQuery{SQL: sqlStr, Args: args})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure(ctx, "error")
		}
		return nil, err
	}
	if len(result.Rows) == 0 {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure(ctx, "bad_credentials")
		}
		slog.Default().Warn("login rejected", slog.String("userid", userID))
		return nil, ErrBadCredentials
	}

	row := result.Rows[0]
	account := &Account{
		UserID:    stringField(row, "userid"),
		FirstName: stringField(row, "firstname"),
		LastName:  stringField(row, "lastname"),
		RoleID:    intField(row, "userroleid"),
		RoleName:  stringField(row, "rolename"),
	}
	account.Admin = strings.EqualFold(account.RoleName, AdminRoleName)

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess(ctx, account.RoleName)
	}
	return account, nil
}
