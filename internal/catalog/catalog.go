// Package catalog maintains the per-table attribute catalog: the ordered
// column names each table exposes, discovered lazily from a zero-row probe
// query and memoized for the process lifetime.
//
// The catalog exists to keep user-supplied identifiers out of SQL text.
// Column and table names cannot be bound as parameters, so every identifier
// that reaches a query string must first be validated here against what the
// live schema actually reports.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"airline-admin/internal/dbexec"
	"airline-admin/internal/observability"
	"airline-admin/internal/sqlutil"
)

// Catalog answers which attributes a table has. It is constructed with the
// executor it probes through and owns its cache; there is no package-level
// instance, callers hold and share one explicitly.
type Catalog struct {
	executor dbexec.QueryExecutor
	schema   string
	cache    *AttributeCache
	metrics  *observability.CatalogMetrics
}

// New creates a catalog that probes tables in the given schema through the
// executor. An empty schema probes unqualified table names; metrics may be
// nil.
func New(executor dbexec.QueryExecutor, schema string, metrics *observability.CatalogMetrics) *Catalog {
	return &Catalog{
		executor: executor,
		schema:   schema,
		cache:    NewAttributeCache(),
		metrics:  metrics,
	}
}

// Attributes returns the table's column names, lower-cased, in the table's
// natural column order. The first call per table issues the schema probe;
// later calls are served from the cache. A failed probe returns an empty
// sequence and leaves the cache unset so a later call may retry.
func (c *Catalog) Attributes(ctx context.Context, table string) []string {
	key := strings.ToLower(table)

	probed := false
	attrs, err := c.cache.GetOrPopulate(key, func() ([]string, error) {
		probed = true
		return c.probe(ctx, table)
	})
	if c.metrics != nil {
		c.metrics.RecordLookup(ctx, key, !probed)
	}
	if err != nil {
		slog.Default().Warn("attribute probe failed",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return attrs
}

// IsValidAttribute reports whether name, case-folded, is one of the table's
// attributes. Both the query builder and the sort resolver route every
// user-supplied identifier through this check before it may appear in SQL.
func (c *Catalog) IsValidAttribute(ctx context.Context, table, name string) bool {
	lowered := strings.ToLower(name)
	for _, attr := range c.Attributes(ctx, table) {
		if attr == lowered {
			return true
		}
	}
	return false
}

// Warm populates the catalog for the given tables, typically at startup so
// the first request does not pay for the probes. Failures are logged by
// Attributes and otherwise ignored; the lazy path retries later.
func (c *Catalog) Warm(ctx context.Context, tables []string) {
	for _, table := range tables {
		if attrs := c.Attributes(ctx, table); len(attrs) > 0 {
			slog.Default().Debug("attribute catalog warmed",
				slog.String("table", table),
				slog.Int("attributes", len(attrs)),
			)
		}
	}
}

// probe runs the zero-row schema probe and returns the result descriptor's
// column names lower-cased. The WHERE 1 = 0 predicate makes the query free
// on the server while still producing the full descriptor.
func (c *Catalog) probe(ctx context.Context, table string) ([]string, error) {
	ctx, span := startSpan(ctx, "catalog.probe",
		attribute.String("db.sql.table", table),
	)
	defer span.End()
	start := time.Now()

	query := fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", sqlutil.QualifyTable(c.schema, table))

	rows, err := c.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, c.probeFailed(ctx, span, table, start, fmt.Errorf("failed to probe table %s: %w", table, err))
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, c.probeFailed(ctx, span, table, start, fmt.Errorf("failed to read columns for table %s: %w", table, err))
	}
	if err := rows.Err(); err != nil {
		return nil, c.probeFailed(ctx, span, table, start, fmt.Errorf("failed to probe table %s: %w", table, err))
	}

	attrs := make([]string, len(cols))
	for i, col := range cols {
		attrs[i] = strings.ToLower(col)
	}

	if c.metrics != nil {
		c.metrics.RecordProbe(ctx, table, time.Since(start), true)
	}
	span.SetAttributes(attribute.Int("db.attribute_count", len(attrs)))
	return attrs, nil
}

func (c *Catalog) probeFailed(ctx context.Context, span trace.Span, table string, start time.Time, err error) error {
	if c.metrics != nil {
		c.metrics.RecordProbe(ctx, table, time.Since(start), false)
	}
	recordSpanError(span, err)
	return err
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("airline-admin/catalog")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
