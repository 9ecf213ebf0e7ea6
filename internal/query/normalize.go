package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"airline-admin/internal/catalog"
	"airline-admin/internal/sqlutil"
)

// ErrUnknownAttribute indicates an attribute the table's catalog does not
// contain.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Comparison is one validated, normalized predicate: the attribute
// expression that may appear in SQL text and the value to bind for it.
type Comparison struct {
	Expr  string
	Op    Operator
	Bound interface{}
}

// NormalizeComparison prepares both sides of a comparison for
// case-insensitive matching. String values are lowered and the attribute
// expression wrapped in lower(); LIKE additionally gets surrounding
// wildcards so the term matches anywhere in the column. noLower opts out of
// folding, as do non-string values, leaving expression and value untouched.
func NormalizeComparison(attrExpr string, op Operator, value interface{}, noLower bool) (string, interface{}) {
	s, isString := value.(string)
	if noLower || !isString {
		return attrExpr, value
	}

	bound := strings.ToLower(s)
	if op == OpLike {
		bound = "%" + bound + "%"
	}
	return "lower(" + attrExpr + ")", bound
}

// BuildComparison is the one path from user input to a predicate. The
// attribute must validate against the table's catalog before it is quoted
// and normalized; the value never becomes part of the SQL text.
func BuildComparison(ctx context.Context, cat *catalog.Catalog, table, attribute string, op Operator, value interface{}, noLower bool) (Comparison, error) {
	if !cat.IsValidAttribute(ctx, table, attribute) {
		return Comparison{}, fmt.Errorf("%w: %q on table %s", ErrUnknownAttribute, attribute, table)
	}

	expr := sqlutil.QuoteIdentifier(strings.ToLower(attribute))
	expr, bound := NormalizeComparison(expr, op, value, noLower)

	return Comparison{Expr: expr, Op: op, Bound: bound}, nil
}
