// Package store is the data access layer for the airline administration
// tool. Each table exposes paginated, sortable listings and filtered
// search through a shared pipeline that only interpolates identifiers
// validated against the attribute catalog, plus row-level insert,
// update and delete statements with bound values.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"airline-admin/internal/catalog"
	"airline-admin/internal/observability"
	"airline-admin/internal/pagination"
	"airline-admin/internal/query"
	"airline-admin/internal/sqlutil"
)

// DefaultPageSize is the number of rows per listing page when the
// configuration does not override it.
const DefaultPageSize = 50

var (
	// ErrNotFound reports that no row matched the requested key.
	ErrNotFound = errors.New("no matching row")

	// ErrUnknownTable reports a table name with no registered store.
	ErrUnknownTable = errors.New("unknown table")

	// ErrNoFields reports an update that carries no values to apply.
	ErrNoFields = errors.New("no fields to update")
)

// SearchRequest narrows a listing to rows matching a single comparison.
// Attribute is validated against the table catalog before it reaches
// SQL; Term always travels as a bound parameter.
type SearchRequest struct {
	Attribute string
	Operator  query.Operator
	Term      interface{}

	// NoLower disables the case-insensitive rewrite for string terms.
	NoLower bool
}

// ListRequest describes one page of a listing as the web layer received
// it. Zero values fall back to the table defaults: page 1, the first
// catalog attribute ascending, no filter.
type ListRequest struct {
	Page    int
	SortBy  string
	SortDir string
	Search  *SearchRequest
}

// Listing is one served page of a table.
type Listing struct {
	Columns []string
	Rows    []map[string]interface{}
	Page    pagination.Page
	Sort    query.Sort
}

// Lister is the read-only listing surface every table store shares.
type Lister interface {
	List(ctx context.Context, req ListRequest) (*Listing, error)
}

// Config carries the store settings shared by all tables.
type Config struct {
	Schema   string
	PageSize int
}

// tableStore implements the shared pipeline: resolve attributes from
// the catalog, build the filter and sort from validated identifiers,
// count, page, select.
type tableStore struct {
	schema   string
	table    string
	keyCol   string
	pageSize int
	catalog  *catalog.Catalog
	runner   *query.Runner
}

func newTableStore(runner *query.Runner, cat *catalog.Catalog, cfg Config, table, keyCol string) tableStore {
	size := cfg.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	return tableStore{
		schema:   cfg.Schema,
		table:    table,
		keyCol:   keyCol,
		pageSize: size,
		catalog:  cat,
		runner:   runner,
	}
}

// list runs the full listing pipeline. A database failure surfaces as
// an error; a page with no rows is a successful empty listing. Callers
// depend on that distinction for their messaging.
func (s *tableStore) list(ctx context.Context, req ListRequest) (*Listing, error) {
	var filter *query.Comparison
	if req.Search != nil {
		cmp, err := query.BuildComparison(ctx, s.catalog, s.table, req.Search.Attribute, req.Search.Operator, req.Search.Term, req.Search.NoLower)
		if err != nil {
			return nil, err
		}
		filter = &cmp
	}

	order, err := query.ResolveSort(ctx, s.catalog, s.table, req.SortBy, req.SortDir)
	if err != nil {
		return nil, err
	}

	params := query.ListParams{
		Schema:  s.schema,
		Table:   s.table,
		Columns: s.catalog.Attributes(ctx, s.table),
		Filter:  filter,
		Sort:    order,
	}

	countPlan, err := query.PlanCount(params)
	if err != nil {
		return nil, err
	}
	total, err := s.runner.Count(ctx, s.table, countPlan)
	if err != nil {
		return nil, err
	}

	page := pagination.Compute(req.Page, s.pageSize, total)
	params.Limit = uint64(page.Size)
	params.Offset = uint64(page.Offset())

	listPlan, err := query.PlanList(params)
	if err != nil {
		return nil, err
	}
	result, err := s.runner.Select(ctx, s.table, listPlan)
	if err != nil {
		return nil, err
	}

	return &Listing{
		Columns: result.Columns,
		Rows:    result.Rows,
		Page:    page,
		Sort:    order,
	}, nil
}

// get fetches the single row whose key column equals key. String keys
// match case-insensitively, the same as every other equality filter.
func (s *tableStore) get(ctx context.Context, key interface{}) (map[string]interface{}, error) {
	cmp, err := query.BuildComparison(ctx, s.catalog, s.table, s.keyCol, query.OpEqual, key, false)
	if err != nil {
		return nil, err
	}

	order, err := query.ResolveSort(ctx, s.catalog, s.table, s.keyCol, query.DirectionAsc)
	if err != nil {
		return nil, err
	}

	plan, err := query.PlanList(query.ListParams{
		Schema:  s.schema,
		Table:   s.table,
		Columns: s.catalog.Attributes(ctx, s.table),
		Filter:  &cmp,
		Sort:    order,
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Select(ctx, s.table, plan)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s = %v in %s", ErrNotFound, s.keyCol, key, s.table)
	}
	return result.Rows[0], nil
}

// insert adds one row using the fixed column list each table store
// declares for its form fields.
func (s *tableStore) insert(ctx context.Context, cols []string, vals []interface{}) error {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = sqlutil.QuoteIdentifier(col)
	}

	sqlStr, args, err := sq.Insert(sqlutil.QualifyTable(s.schema, s.table)).
		Columns(quoted...).
		Values(vals...).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", s.table, err)
	}

	_, err = s.runner.Exec(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
	return err
}

// update applies the present fields to the row matching key. Every set
// column is checked against the catalog before it is used as an
// identifier.
func (s *tableStore) update(ctx context.Context, key interface{}, set map[string]interface{}) (int64, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoFields, s.table)
	}

	clauses := make(map[string]interface{}, len(set))
	for col, val := range set {
		name := strings.ToLower(col)
		if !s.catalog.IsValidAttribute(ctx, s.table, name) {
			return 0, fmt.Errorf("%w: %q on table %s", query.ErrUnknownAttribute, col, s.table)
		}
		clauses[sqlutil.QuoteIdentifier(name)] = val
	}

	sqlStr, args, err := sq.Update(sqlutil.QualifyTable(s.schema, s.table)).
		SetMap(clauses).
		Where(sq.Eq{sqlutil.QuoteIdentifier(s.keyCol): key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update for %s: %w", s.table, err)
	}

	return s.runner.Exec(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
}

// deleteByKey removes the row matching key and reports how many rows
// went away. Zero with a nil error means the key matched nothing.
func (s *tableStore) deleteByKey(ctx context.Context, key interface{}) (int64, error) {
	sqlStr, args, err := sq.Delete(sqlutil.QualifyTable(s.schema, s.table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(s.keyCol): key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete for %s: %w", s.table, err)
	}

	return s.runner.Exec(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
}

// stats returns per-group row counts ordered by the grouping column.
func (s *tableStore) stats(ctx context.Context, groupCol string) (*query.ResultSet, error) {
	col := sqlutil.QuoteIdentifier(groupCol)

	sqlStr, args, err := sq.Select(col, "COUNT(*) AS count").
		From(sqlutil.QualifyTable(s.schema, s.table)).
		GroupBy(col).
		OrderBy(col + " ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats for %s: %w", s.table, err)
	}

	return s.runner.Select(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
}

// TableListing is a read-only listing store for tables that have no
// dedicated CRUD surface.
type TableListing struct {
	tableStore
}

// NewTableListing creates a listing-only store for table, keyed by
// keyCol.
func NewTableListing(runner *query.Runner, cat *catalog.Catalog, cfg Config, table, keyCol string) *TableListing {
	return &TableListing{newTableStore(runner, cat, cfg, table, keyCol)}
}

// List serves one page of the table.
func (s *TableListing) List(ctx context.Context, req ListRequest) (*Listing, error) {
	return s.list(ctx, req)
}

// Stores bundles every table store plus the read-only listing registry
// the JSON API serves from.
type Stores struct {
	Users   *UsersStore
	Tickets *TicketsStore
	Auth    *AuthStore

	listings map[string]Lister
}

// NewStores wires the table stores over a shared runner and catalog.
// sessionMetrics may be nil.
func NewStores(runner *query.Runner, cat *catalog.Catalog, sessionMetrics *observability.SessionMetrics, cfg Config) *Stores {
	users := NewUsersStore(runner, cat, cfg)
	tickets := NewTicketsStore(runner, cat, cfg)

	return &Stores{
		Users:   users,
		Tickets: tickets,
		Auth:    NewAuthStore(runner, cfg.Schema, sessionMetrics),
		listings: map[string]Lister{
			"users":      users,
			"tickets":    tickets,
			"userroles":  NewTableListing(runner, cat, cfg, "userroles", "userroleid"),
			"flights":    NewTableListing(runner, cat, cfg, "flights", "flightid"),
			"passengers": NewTableListing(runner, cat, cfg, "passengers", "passengerid"),
		},
	}
}

// Listing returns the read-only listing store for table, matching the
// name case-insensitively.
func (s *Stores) Listing(table string) (Lister, error) {
	l, ok := s.listings[strings.ToLower(table)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return l, nil
}

// Tables lists the names the listing registry serves, sorted.
func (s *Stores) Tables() []string {
	names := make([]string, 0, len(s.listings))
	for name := range s.listings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringField(row map[string]interface{}, name string) string {
	v, _ := row[name].(string)
	return v
}

func intField(row map[string]interface{}, name string) int64 {
	switch v := row[name].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
