package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"airline-admin/internal/sqlutil"
)

// SQLQuery represents a planned SQL statement with bound args.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}

// ListParams describes one page listing over a single table. Columns and
// the sort must come from the table's catalog; Filter, when set, must have
// been produced by BuildComparison.
type ListParams struct {
	Schema  string
	Table   string
	Columns []string
	Filter  *Comparison
	Sort    Sort
	Limit   uint64
	Offset  uint64
}

// PlanList builds the page query: explicit select list, optional predicate,
// total ordering, then the pagination window. Limit zero means no window.
func PlanList(p ListParams) (SQLQuery, error) {
	builder, err := baseSelect(p)
	if err != nil {
		return SQLQuery{}, err
	}

	builder = builder.OrderBy(orderClauses(p.Sort)...)
	if p.Limit > 0 {
		builder = builder.Limit(p.Limit).Offset(p.Offset)
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return SQLQuery{}, fmt.Errorf("failed to build list query for %s: %w", p.Table, err)
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanCount wraps the same filtered base in COUNT(*), so the total row
// count always agrees with the set PlanList pages over.
func PlanCount(p ListParams) (SQLQuery, error) {
	builder, err := baseSelect(p)
	if err != nil {
		return SQLQuery{}, err
	}

	query, args, err := sq.Select("COUNT(*)").
		FromSelect(builder, "filtered_rows").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return SQLQuery{}, fmt.Errorf("failed to build count query for %s: %w", p.Table, err)
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

func baseSelect(p ListParams) (sq.SelectBuilder, error) {
	if len(p.Columns) == 0 {
		return sq.SelectBuilder{}, fmt.Errorf("no columns to select from table %s", p.Table)
	}

	cols := make([]string, len(p.Columns))
	for i, col := range p.Columns {
		cols[i] = sqlutil.QuoteIdentifier(col)
	}

	builder := sq.Select(cols...).From(sqlutil.QualifyTable(p.Schema, p.Table))
	if p.Filter != nil {
		condition := fmt.Sprintf("%s %s ?", p.Filter.Expr, p.Filter.Op)
		builder = builder.Where(sq.Expr(condition, p.Filter.Bound))
	}
	return builder, nil
}

func orderClauses(s Sort) []string {
	clauses := make([]string, 0, len(s.Remaining)+1)
	clauses = append(clauses, sqlutil.QuoteIdentifier(s.Column)+" "+strings.ToUpper(s.Direction))
	for _, col := range s.Remaining {
		clauses = append(clauses, sqlutil.QuoteIdentifier(col)+" ASC")
	}
	return clauses
}
