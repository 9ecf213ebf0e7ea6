package query

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
)

// ResultSet is the outcome of a successful select: column names in
// descriptor order, lower-cased, and the rows keyed by exactly those names.
// An empty Rows with a nil error is a real answer, not a failure.
type ResultSet struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Runner executes planned queries and maps their results. It reports
// failures as errors so callers can distinguish a broken query from an
// empty result.
type Runner struct {
	executor dbexec.QueryExecutor
	metrics  *observability.QueryMetrics
}

// NewRunner creates a runner over the executor. metrics may be nil.
func NewRunner(executor dbexec.QueryExecutor, metrics *observability.QueryMetrics) *Runner {
	return &Runner{executor: executor, metrics: metrics}
}

// Select runs a planned row query and collects the full result.
func (r *Runner) Select(ctx context.Context, table string, q SQLQuery) (*ResultSet, error) {
	ctx, span := startSpan(ctx, "query.select",
		attribute.String("db.sql.table", table),
	)
	defer span.End()
	start := time.Now()

	rows, err := r.executor.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, r.fail(ctx, span, table, "select", start, err)
	}
	defer func() { _ = rows.Close() }()

	result, err := collectRows(rows)
	if err != nil {
		return nil, r.fail(ctx, span, table, "select", start, err)
	}

	r.recordQuery(ctx, table, "select", start, false)
	if r.metrics != nil {
		r.metrics.RecordResultRows(ctx, table, int64(len(result.Rows)))
	}
	span.SetAttributes(attribute.Int("db.rows_returned", len(result.Rows)))
	return result, nil
}

// Count runs a planned COUNT query and returns the single value.
func (r *Runner) Count(ctx context.Context, table string, q SQLQuery) (int, error) {
	ctx, span := startSpan(ctx, "query.count",
		attribute.String("db.sql.table", table),
	)
	defer span.End()
	start := time.Now()

	rows, err := r.executor.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return 0, r.fail(ctx, span, table, "count", start, err)
	}
	defer func() { _ = rows.Close() }()

	count := 0
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, r.fail(ctx, span, table, "count", start, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, r.fail(ctx, span, table, "count", start, err)
	}

	r.recordQuery(ctx, table, "count", start, false)
	span.SetAttributes(attribute.Int("db.count", count))
	return count, nil
}

// Exec runs a planned statement that returns no rows and reports how many
// rows it affected.
func (r *Runner) Exec(ctx context.Context, table string, q SQLQuery) (int64, error) {
	ctx, span := startSpan(ctx, "query.exec",
		attribute.String("db.sql.table", table),
	)
	defer span.End()
	start := time.Now()

	result, err := r.executor.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return 0, r.fail(ctx, span, table, "exec", start, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, r.fail(ctx, span, table, "exec", start, err)
	}

	r.recordQuery(ctx, table, "exec", start, false)
	span.SetAttributes(attribute.Int64("db.rows_affected", affected))
	return affected, nil
}

func (r *Runner) fail(ctx context.Context, span trace.Span, table, kind string, start time.Time, err error) error {
	r.recordQuery(ctx, table, kind, start, true)
	recordSpanError(span, err)
	slog.Default().Error("query failed",
		slog.String("table", table),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("failed to run %s query on %s: %w", kind, table, err)
}

func (r *Runner) recordQuery(ctx context.Context, table, kind string, start time.Time, hasError bool) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordQuery(ctx, table, kind, time.Since(start), hasError)
}

func collectRows(rows dbexec.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(cols))
	for i, col := range cols {
		columns[i] = strings.ToLower(col)
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	return result, rows.Err()
}

// convertValue makes driver values template friendly. Byte slices become
// strings; everything else passes through.
func convertValue(val interface{}) interface{} {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("airline-admin/query")
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
