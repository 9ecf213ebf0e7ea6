package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RequestMetrics holds custom metrics for browser-facing page requests.
type RequestMetrics struct {
	requestDuration metric.Float64Histogram
	requestCounter  metric.Int64Counter
	errorCounter    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// InitRequestMetrics initializes page request metrics.
func InitRequestMetrics() (*RequestMetrics, error) {
	meter := otel.Meter("airline-admin")

	requestDuration, err := meter.Float64Histogram(
		"http.page.duration",
		metric.WithDescription("Duration of page requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	requestCounter, err := meter.Int64Counter(
		"http.page.requests.total",
		metric.WithDescription("Total number of page requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"http.page.errors.total",
		metric.WithDescription("Total number of page requests that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.page.requests.active",
		metric.WithDescription("Number of page requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}

	return &RequestMetrics{
		requestDuration: requestDuration,
		requestCounter:  requestCounter,
		errorCounter:    errorCounter,
		activeRequests:  activeRequests,
	}, nil
}

// RecordRequest records one finished page request with its route and status.
func (m *RequestMetrics) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("route", route),
		attribute.Int("status", status),
	}

	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if status >= 500 {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
}

// IncrementActiveRequests marks a request as started.
func (m *RequestMetrics) IncrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests marks a request as finished.
func (m *RequestMetrics) DecrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, -1)
}

// QueryMetrics holds custom metrics for generated listing queries.
type QueryMetrics struct {
	queryDuration metric.Float64Histogram
	queryCounter  metric.Int64Counter
	errorCounter  metric.Int64Counter
	resultRows    metric.Int64Histogram
}

// InitQueryMetrics initializes query execution metrics.
func InitQueryMetrics() (*QueryMetrics, error) {
	meter := otel.Meter("airline-admin")

	queryDuration, err := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Duration of generated queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}

	queryCounter, err := meter.Int64Counter(
		"db.query.total",
		metric.WithDescription("Total number of generated queries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"db.query.errors.total",
		metric.WithDescription("Total number of generated queries that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query error counter: %w", err)
	}

	resultRows, err := meter.Int64Histogram(
		"db.query.result_rows",
		metric.WithDescription("Number of rows returned by listing queries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create result rows histogram: %w", err)
	}

	return &QueryMetrics{
		queryDuration: queryDuration,
		queryCounter:  queryCounter,
		errorCounter:  errorCounter,
		resultRows:    resultRows,
	}, nil
}

// RecordQuery records one executed query with its table, kind and outcome.
func (m *QueryMetrics) RecordQuery(ctx context.Context, table, kind string, duration time.Duration, hasError bool) {
	attrs := []attribute.KeyValue{
		attribute.String("table", table),
		attribute.String("kind", kind),
		attribute.Bool("has_error", hasError),
	}

	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.queryCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if hasError {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("kind", kind),
		))
	}
}

// RecordResultRows records how many rows a listing query returned.
func (m *QueryMetrics) RecordResultRows(ctx context.Context, table string, count int64) {
	m.resultRows.Record(ctx, count, metric.WithAttributes(
		attribute.String("table", table),
	))
}
