package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SessionMetrics holds metrics for login, logout and access control.
type SessionMetrics struct {
	loginAttempts  metric.Int64Counter
	loginFailures  metric.Int64Counter
	loginSuccesses metric.Int64Counter
	logouts        metric.Int64Counter
	deniedRequests metric.Int64Counter
}

// InitSessionMetrics initializes session and access control metrics.
func InitSessionMetrics() (*SessionMetrics, error) {
	meter := otel.Meter("airline-admin/session")

	loginAttempts, err := meter.Int64Counter(
		"session.login.attempts.total",
		metric.WithDescription("Total number of login attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login attempts counter: %w", err)
	}

	loginFailures, err := meter.Int64Counter(
		"session.login.failures.total",
		metric.WithDescription("Total number of failed logins"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login failures counter: %w", err)
	}

	loginSuccesses, err := meter.Int64Counter(
		"session.login.successes.total",
		metric.WithDescription("Total number of successful logins"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login successes counter: %w", err)
	}

	logouts, err := meter.Int64Counter(
		"session.logouts.total",
		metric.WithDescription("Total number of logouts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logouts counter: %w", err)
	}

	deniedRequests, err := meter.Int64Counter(
		"session.denied.total",
		metric.WithDescription("Total number of requests denied by the login gate"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create denied requests counter: %w", err)
	}

	return &SessionMetrics{
		loginAttempts:  loginAttempts,
		loginFailures:  loginFailures,
		loginSuccesses: loginSuccesses,
		logouts:        logouts,
		deniedRequests: deniedRequests,
	}, nil
}

// RecordLoginAttempt records a credential check, successful or not.
func (m *SessionMetrics) RecordLoginAttempt(ctx context.Context) {
	m.loginAttempts.Add(ctx, 1)
}

// RecordLoginFailure records a rejected login with its reason.
func (m *SessionMetrics) RecordLoginFailure(ctx context.Context, reason string) {
	m.loginFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordLoginSuccess records an accepted login with the user's role.
func (m *SessionMetrics) RecordLoginSuccess(ctx context.Context, role string) {
	m.loginSuccesses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
	))
}

// RecordLogout records a session being cleared.
func (m *SessionMetrics) RecordLogout(ctx context.Context) {
	m.logouts.Add(ctx, 1)
}

// RecordDenied records a request turned away by the login or admin gate.
func (m *SessionMetrics) RecordDenied(ctx context.Context, path, reason string) {
	m.deniedRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("reason", reason),
	))
}
