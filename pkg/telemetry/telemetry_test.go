// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestInitNone(t *testing.T) {
	shutdown, err := Init("kubebeaver-ui-test", "v0.0.1", Config{Exporter: "none"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Shutdown function should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitStdout(t *testing.T) {
	shutdown, err := Init("kubebeaver-ui-test", "v0.0.1", Config{Exporter: "stdout"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	if _, err := Init("kubebeaver-ui-test", "v0.0.1", Config{Exporter: "otlp"}); err == nil {
		t.Fatal("expected error for otlp exporter without endpoint")
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := Init("kubebeaver-ui-test", "v0.0.1", Config{Exporter: "jaeger"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestConfigureSlog(t *testing.T) {
	logger := ConfigureSlog(io.Discard, "debug", "json")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = ConfigureSlog(io.Discard, "warn", "text")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info level should be disabled at warn")
	}
}

func TestLogRecordsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")

	ctx := WithRequestID(context.Background(), "req-7")
	logger.InfoContext(ctx, "hello")
	if !strings.Contains(buf.String(), `"request_id":"req-7"`) {
		t.Errorf("request id missing from log line: %s", buf.String())
	}

	// An explicit request_id attribute wins over the context's.
	buf.Reset()
	logger.InfoContext(ctx, "hello", "request_id", "explicit")
	if !strings.Contains(buf.String(), `"request_id":"explicit"`) {
		t.Errorf("explicit attribute should win: %s", buf.String())
	}
	if strings.Contains(buf.String(), "req-7") {
		t.Errorf("context id should not duplicate the explicit one: %s", buf.String())
	}

	buf.Reset()
	logger.Info("no context")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("request id should be absent without context: %s", buf.String())
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if ctx2 := WithRequestID(context.Background(), ""); RequestIDFromContext(ctx2) != "" {
		t.Error("empty id should not be stored")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
