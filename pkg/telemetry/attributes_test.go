// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestRequestAttributes(t *testing.T) {
	attrs := RequestAttributes("analyze", "evidence", "req-123")

	expected := map[string]any{
		AttrPage:      "analyze",
		AttrFragment:  "evidence",
		AttrRequestID: "req-123",
	}

	assertAttributes(t, attrs, expected)
}

func TestRequestAttributes_Empty(t *testing.T) {
	attrs := RequestAttributes("", "", "")
	if len(attrs) != 0 {
		t.Errorf("expected no attributes, got %d", len(attrs))
	}
}

func TestBackendCallAttributes(t *testing.T) {
	attrs := BackendCallAttributes("POST", "/api/analyze", 200, 412.5)

	expected := map[string]any{
		AttrBackendMethod:     "POST",
		AttrBackendEndpoint:   "/api/analyze",
		AttrBackendStatus:     200,
		AttrBackendDurationMs: 412.5,
	}

	assertAttributes(t, attrs, expected)
}

func TestBackendCallAttributes_NoStatus(t *testing.T) {
	attrs := BackendCallAttributes("GET", "/api/health", 0, 3.0)
	for _, attr := range attrs {
		if string(attr.Key) == AttrBackendStatus {
			t.Error("status attribute should be omitted when zero")
		}
	}
}

func TestTargetAttributes(t *testing.T) {
	attrs := TargetAttributes("pod", "prod", "api-7f9c", "minikube")

	expected := map[string]any{
		AttrTargetKind:      "pod",
		AttrTargetNamespace: "prod",
		AttrTargetName:      "api-7f9c",
		AttrTargetContext:   "minikube",
	}

	assertAttributes(t, attrs, expected)
}

func TestScanAttributes(t *testing.T) {
	attrs := ScanAttributes("cluster", 7)

	expected := map[string]any{
		AttrScanScope:    "cluster",
		AttrScanFindings: 7,
	}

	assertAttributes(t, attrs, expected)
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes("namespaces:minikube", true)

	expected := map[string]any{
		AttrCacheKey: "namespaces:minikube",
		AttrCacheHit: true,
	}

	assertAttributes(t, attrs, expected)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("BACKEND_ERROR", true)

	expected := map[string]any{
		AttrErrorCode:        "BACKEND_ERROR",
		AttrErrorRecoverable: true,
	}

	assertAttributes(t, attrs, expected)
}

// assertAttributes checks that expected key-value pairs exist in attrs
func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	found := make(map[string]attribute.KeyValue)
	for _, attr := range attrs {
		found[string(attr.Key)] = attr
	}

	for key, expectedVal := range expected {
		attr, ok := found[key]
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}

		var actualVal any
		switch attr.Value.Type() {
		case attribute.STRING:
			actualVal = attr.Value.AsString()
		case attribute.INT64:
			actualVal = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			actualVal = attr.Value.AsFloat64()
		case attribute.BOOL:
			actualVal = attr.Value.AsBool()
		}

		if actualVal != expectedVal {
			t.Errorf("attribute %s: got %v, want %v", key, actualVal, expectedVal)
		}
	}
}
