// Package query plans and runs the dynamic listing queries behind every
// table page: filtered search, total ordering, pagination windows and the
// matching COUNT. Identifiers only enter generated SQL after catalog
// validation; values are always bound as placeholders.
package query

import (
	"errors"
	"fmt"
)

// Operator is a comparison operator from the closed set the search form
// accepts. Anything outside the set is rejected before SQL assembly.
type Operator string

const (
	OpEqual    Operator = "="
	OpLess     Operator = "<"
	OpGreater  Operator = ">"
	OpNotEqual Operator = "<>"
	OpRegex    Operator = "~"
	OpLike     Operator = "LIKE"
)

// ErrUnknownOperator indicates an operator outside the accepted set.
var ErrUnknownOperator = errors.New("unknown operator")

var validOperators = map[Operator]bool{
	OpEqual:    true,
	OpLess:     true,
	OpGreater:  true,
	OpNotEqual: true,
	OpRegex:    true,
	OpLike:     true,
}

// ParseOperator validates s against the operator set. Membership is exact;
// there is no folding or aliasing.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !validOperators[op] {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
	return op, nil
}

// Operators returns the accepted operators in display order.
func Operators() []Operator {
	return []Operator{OpEqual, OpLess, OpGreater, OpNotEqual, OpRegex, OpLike}
}
