// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

// UIMetrics tracks request volume, backend call latency and failure patterns
// for the dashboard.
type UIMetrics struct {
	// requestCounter tracks UI requests by page/fragment and status
	requestCounter metric.Int64Counter

	// requestDuration tracks UI request latency in milliseconds
	requestDuration metric.Float64Histogram

	// backendCounter tracks backend API calls by endpoint and status
	backendCounter metric.Int64Counter

	// backendDuration tracks backend call latency in milliseconds
	backendDuration metric.Float64Histogram

	// errorCounter tracks typed errors by code
	errorCounter metric.Int64Counter

	// cacheCounter tracks query cache hits and misses
	cacheCounter metric.Int64Counter

	// circuitBreakerStateGauge tracks breaker state (0=open, 1=half-open, 2=closed)
	circuitBreakerStateGauge metric.Int64Gauge
}

// NewUIMetrics creates a metrics tracker with OTEL meters.
func NewUIMetrics(ctx context.Context) (*UIMetrics, error) {
	meter := otel.Meter("kubebeaver/ui")

	requestCounter, err := meter.Int64Counter(
		"kubebeaver.requests.total",
		metric.WithDescription("Total UI requests by page and status"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"kubebeaver.requests.duration_ms",
		metric.WithDescription("UI request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	backendCounter, err := meter.Int64Counter(
		"kubebeaver.backend.calls.total",
		metric.WithDescription("Total backend API calls by endpoint and status"),
	)
	if err != nil {
		return nil, err
	}

	backendDuration, err := meter.Float64Histogram(
		"kubebeaver.backend.calls.duration_ms",
		metric.WithDescription("Backend call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"kubebeaver.errors.total",
		metric.WithDescription("Total typed errors by code"),
	)
	if err != nil {
		return nil, err
	}

	cacheCounter, err := meter.Int64Counter(
		"kubebeaver.cache.lookups.total",
		metric.WithDescription("Query cache lookups by outcome"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerStateGauge, err := meter.Int64Gauge(
		"kubebeaver.circuitbreaker.state",
		metric.WithDescription("Backend circuit breaker state (0=open, 1=half-open, 2=closed)"),
	)
	if err != nil {
		return nil, err
	}

	return &UIMetrics{
		requestCounter:           requestCounter,
		requestDuration:          requestDuration,
		backendCounter:           backendCounter,
		backendDuration:          backendDuration,
		errorCounter:             errorCounter,
		cacheCounter:             cacheCounter,
		circuitBreakerStateGauge: circuitBreakerStateGauge,
	}, nil
}

// RecordRequest records a completed UI request.
func (m *UIMetrics) RecordRequest(ctx context.Context, page string, status int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrPage, page),
		attribute.Int(AttrHTTPStatus, status),
	)
	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String(AttrPage, page)))
}

// RecordBackendCall records a completed backend API call.
func (m *UIMetrics) RecordBackendCall(ctx context.Context, endpoint string, status int, durationMs float64) {
	if m == nil {
		return
	}
	m.backendCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackendEndpoint, endpoint),
		attribute.Int(AttrBackendStatus, status),
	))
	m.backendDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String(AttrBackendEndpoint, endpoint),
	))
}

// RecordError increments the error counter with the typed error's code.
// Untyped errors are counted under UNKNOWN.
func (m *UIMetrics) RecordError(ctx context.Context, err error) {
	if m == nil || err == nil {
		return
	}
	code := "UNKNOWN"
	recoverable := false
	if ue := uierr.As(err); ue != nil {
		code = string(ue.Code)
		recoverable = ue.Recoverable
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrErrorRecoverable, recoverable),
	))
}

// RecordCacheLookup records a query cache hit or miss.
func (m *UIMetrics) RecordCacheLookup(ctx context.Context, key string, hit bool) {
	if m == nil {
		return
	}
	m.cacheCounter.Add(ctx, 1, metric.WithAttributes(CacheAttributes(key, hit)...))
}

// RecordCircuitBreakerState records breaker state (0=open, 1=half-open, 2=closed).
func (m *UIMetrics) RecordCircuitBreakerState(ctx context.Context, state int64) {
	if m == nil {
		return
	}
	m.circuitBreakerStateGauge.Record(ctx, state)
}
