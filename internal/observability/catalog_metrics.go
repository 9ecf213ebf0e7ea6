package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CatalogMetrics holds custom metrics for attribute catalog behavior.
type CatalogMetrics struct {
	probeCounter  metric.Int64Counter
	probeErrors   metric.Int64Counter
	probeDuration metric.Float64Histogram
	lookupCounter metric.Int64Counter
	lastProbeUnix atomic.Int64
}

// InitCatalogMetrics initializes attribute catalog metrics.
func InitCatalogMetrics(logger *slog.Logger) (*CatalogMetrics, error) {
	meter := otel.Meter("airline-admin")

	probeCounter, err := meter.Int64Counter(
		"catalog.probe.total",
		metric.WithDescription("Total number of attribute probe attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog probe counter: %w", err)
	}

	probeErrors, err := meter.Int64Counter(
		"catalog.probe.errors.total",
		metric.WithDescription("Total number of failed attribute probes"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog probe error counter: %w", err)
	}

	probeDuration, err := meter.Float64Histogram(
		"catalog.probe.duration",
		metric.WithDescription("Duration of attribute probes in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog probe duration histogram: %w", err)
	}

	lookupCounter, err := meter.Int64Counter(
		"catalog.lookups.total",
		metric.WithDescription("Total number of attribute catalog lookups"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog lookup counter: %w", err)
	}

	lastProbeGauge, err := meter.Int64ObservableGauge(
		"catalog.probe.last_success_unix",
		metric.WithDescription("Unix timestamp of the last successful attribute probe"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog last probe gauge: %w", err)
	}

	metrics := &CatalogMetrics{
		probeCounter:  probeCounter,
		probeErrors:   probeErrors,
		probeDuration: probeDuration,
		lookupCounter: lookupCounter,
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			value := metrics.lastProbeUnix.Load()
			if value > 0 {
				observer.ObserveInt64(lastProbeGauge, value)
			}
			return nil
		},
		lastProbeGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register catalog gauge callback: %w", err)
	}

	logger.Info("catalog metrics initialized")
	return metrics, nil
}

// RecordProbe records one attribute probe attempt.
func (m *CatalogMetrics) RecordProbe(ctx context.Context, table string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("table", table),
		attribute.Bool("success", success),
	}

	m.probeCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.probeDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		m.probeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))
		return
	}

	m.lastProbeUnix.Store(time.Now().Unix())
}

// RecordLookup records one catalog lookup and whether the cache served it.
func (m *CatalogMetrics) RecordLookup(ctx context.Context, table string, hit bool) {
	m.lookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", table),
		attribute.Bool("cache_hit", hit),
	))
}
