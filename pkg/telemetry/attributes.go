// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for KubeBeaver UI telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Page/fragment attributes
	AttrPage       = "kubebeaver.page"
	AttrFragment   = "kubebeaver.fragment"
	AttrRequestID  = "kubebeaver.request.id"
	AttrHTTPStatus = "kubebeaver.http.status"

	// Backend call attributes
	AttrBackendEndpoint   = "kubebeaver.backend.endpoint"
	AttrBackendMethod     = "kubebeaver.backend.method"
	AttrBackendStatus     = "kubebeaver.backend.status"
	AttrBackendDurationMs = "kubebeaver.backend.duration_ms"
	AttrBackendAttempt    = "kubebeaver.backend.attempt"

	// Analysis target attributes
	AttrTargetKind      = "kubebeaver.target.kind"
	AttrTargetNamespace = "kubebeaver.target.namespace"
	AttrTargetName      = "kubebeaver.target.name"
	AttrTargetContext   = "kubebeaver.target.context"

	// Scan attributes
	AttrScanScope    = "kubebeaver.scan.scope"
	AttrScanFindings = "kubebeaver.scan.finding_count"

	// Incident attributes
	AttrIncidentID     = "kubebeaver.incident.id"
	AttrIncidentStatus = "kubebeaver.incident.status"

	// Cache attributes
	AttrCacheKey = "kubebeaver.cache.key"
	AttrCacheHit = "kubebeaver.cache.hit"

	// Error attributes
	AttrErrorCode        = "kubebeaver.error.code"
	AttrErrorRecoverable = "kubebeaver.error.recoverable"
)

// RequestAttributes returns common attributes for UI request spans.
func RequestAttributes(page, fragment, requestID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if page != "" {
		attrs = append(attrs, attribute.String(AttrPage, page))
	}
	if fragment != "" {
		attrs = append(attrs, attribute.String(AttrFragment, fragment))
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	return attrs
}

// BackendCallAttributes returns attributes for a backend HTTP call span.
func BackendCallAttributes(method, endpoint string, status int, durationMs float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrBackendMethod, method),
		attribute.String(AttrBackendEndpoint, endpoint),
		attribute.Float64(AttrBackendDurationMs, durationMs),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int(AttrBackendStatus, status))
	}
	return attrs
}

// TargetAttributes returns attributes identifying the analyzed resource.
func TargetAttributes(kind, namespace, name, kubeContext string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTargetKind, kind),
	}
	if namespace != "" {
		attrs = append(attrs, attribute.String(AttrTargetNamespace, namespace))
	}
	if name != "" {
		attrs = append(attrs, attribute.String(AttrTargetName, name))
	}
	if kubeContext != "" {
		attrs = append(attrs, attribute.String(AttrTargetContext, kubeContext))
	}
	return attrs
}

// ScanAttributes returns attributes for cluster scan spans.
func ScanAttributes(scope string, findings int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrScanScope, scope),
	}
	if findings >= 0 {
		attrs = append(attrs, attribute.Int(AttrScanFindings, findings))
	}
	return attrs
}

// CacheAttributes returns attributes for query cache lookups.
func CacheAttributes(key string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheKey, key),
		attribute.Bool(AttrCacheHit, hit),
	}
}

// ErrorAttributes returns attributes describing a typed failure.
func ErrorAttributes(code string, recoverable bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrErrorRecoverable, recoverable),
	}
}
