package query

import (
	"context"
	"fmt"
	"strings"

	"airline-admin/internal/catalog"
)

// Sort directions as they appear in URLs and forms.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Sort is a resolved total ordering over one table: the primary column with
// its direction, then every remaining catalog column ascending. The tie
// breakers make row order deterministic, so pagination windows never
// overlap or skip rows between requests.
type Sort struct {
	Column    string
	Direction string
	Remaining []string
}

// ResolveSort maps the requested (sortBy, sortDir) pair onto the table's
// catalog. An unknown column or direction falls back to the first catalog
// attribute ascending rather than failing the page. An empty catalog is an
// error: with no known attributes there is nothing safe to order by.
func ResolveSort(ctx context.Context, cat *catalog.Catalog, table, sortBy, sortDir string) (Sort, error) {
	attrs := cat.Attributes(ctx, table)
	if len(attrs) == 0 {
		return Sort{}, fmt.Errorf("no attributes known for table %s", table)
	}

	column := strings.ToLower(sortBy)
	direction := strings.ToLower(sortDir)

	validDirection := direction == DirectionAsc || direction == DirectionDesc
	if !containsAttribute(attrs, column) || !validDirection {
		column = attrs[0]
		direction = DirectionAsc
	}

	remaining := make([]string, 0, len(attrs)-1)
	for _, attr := range attrs {
		if attr != column {
			remaining = append(remaining, attr)
		}
	}

	return Sort{Column: column, Direction: direction, Remaining: remaining}, nil
}

// ToggleDirection returns the direction a column header link should request
// next: clicking the column that is already sorted ascending flips it to
// descending, anything else starts ascending.
func ToggleDirection(active Sort, column string) string {
	if strings.ToLower(column) == active.Column && active.Direction == DirectionAsc {
		return DirectionDesc
	}
	return DirectionAsc
}

func containsAttribute(attrs []string, target string) bool {
	for _, attr := range attrs {
		if attr == target {
			return true
		}
	}
	return false
}
