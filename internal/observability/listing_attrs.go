package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListingSpanAttributes builds canonical span attributes for a table
// listing request.
func ListingSpanAttributes(table string, page, totalPages, totalRows int, sortColumn, sortDirection string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)

	if table != "" {
		attrs = append(attrs, attribute.String("listing.table", table))
	}
	if page > 0 {
		attrs = append(attrs, attribute.Int("listing.page", page))
	}
	if totalPages > 0 {
		attrs = append(attrs, attribute.Int("listing.total_pages", totalPages))
	}
	if totalRows >= 0 {
		attrs = append(attrs, attribute.Int("listing.total_rows", totalRows))
	}
	if sortColumn != "" {
		attrs = append(attrs,
			attribute.String("listing.sort.column", sortColumn),
			attribute.String("listing.sort.direction", sortDirection),
		)
	}

	return attrs
}

// ListingLogFields builds canonical structured log fields for a table
// listing request, carrying the active trace id when one exists.
func ListingLogFields(ctx context.Context, table string, page int, sortColumn, sortDirection string) []any {
	fields := make([]any, 0, 5)

	if table != "" {
		fields = append(fields, slog.String("table", table))
	}
	if page > 0 {
		fields = append(fields, slog.Int("page", page))
	}
	if sortColumn != "" {
		fields = append(fields,
			slog.String("sort_column", sortColumn),
			slog.String("sort_direction", sortDirection),
		)
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		fields = append(fields, slog.String("trace_id", spanCtx.TraceID().String()))
	}

	return fields
}
