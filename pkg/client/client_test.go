// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/resilience"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

// noRetry keeps tests fast and call counts deterministic.
func noRetry() Option {
	return WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(1))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.HealthResponse{
			Status:        "ok",
			KubeConnected: true,
			LLMConfigured: true,
			LLMProvider:   "groq",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if resp.Status != "ok" || !resp.KubeConnected || resp.LLMProvider != "groq" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestNamespacesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("context"); got != "minikube" {
			t.Errorf("context = %q", got)
		}
		if got := r.URL.Query().Get("no_cache"); got != "true" {
			t.Errorf("no_cache = %q", got)
		}
		json.NewEncoder(w).Encode([]string{"default", "kube-system"})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	namespaces, err := c.Namespaces(context.Background(), "minikube", true)
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	if len(namespaces) != 2 || namespaces[0] != "default" {
		t.Errorf("unexpected namespaces: %v", namespaces)
	}
}

func TestResourcesRejectsBadKind(t *testing.T) {
	c := New("http://localhost:0", noRetry())
	_, err := c.Resources(context.Background(), "CronJob", "prod", "")
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestAnalyzePostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/analyze" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req api.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Kind != api.KindPod || req.Name != "api-0" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(api.AnalyzeResponse{
			AnalysisJSON: api.AnalysisJSON{Summary: "crashloop"},
			Evidence:     json.RawMessage(`{"pod":{"phase":"CrashLoopBackOff"}}`),
			TokensUsed:   120,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	resp, err := c.Analyze(context.Background(), api.AnalyzeRequest{
		Kind:      api.KindPod,
		Namespace: "prod",
		Name:      "api-0",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.AnalysisJSON.Summary != "crashloop" {
		t.Errorf("summary = %q", resp.AnalysisJSON.Summary)
	}
	if string(resp.Evidence) != `{"pod":{"phase":"CrashLoopBackOff"}}` {
		t.Errorf("evidence not preserved: %s", resp.Evidence)
	}
}

func TestAnalyzeValidatesLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	_, err := c.Analyze(context.Background(), api.AnalyzeRequest{Kind: api.KindPod, Name: "x"})
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if called {
		t.Error("invalid request should not reach the backend")
	}
}

func TestDetailEnvelopeBecomesTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Analysis not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	_, err := c.Analysis(context.Background(), "missing")
	ue := uierr.As(err)
	if ue == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if ue.Code != uierr.CodeNotFound {
		t.Errorf("code = %s, want NOT_FOUND", ue.Code)
	}
	if ue.Message != "Analysis not found" {
		t.Errorf("message = %q, want backend detail", ue.Message)
	}
}

func TestBadGatewayIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "cluster unreachable"})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	_, err := c.Contexts(context.Background())
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeBackend {
		t.Fatalf("expected BACKEND_ERROR, got %v", err)
	}
	if !ue.Recoverable {
		t.Error("502 should be recoverable")
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]api.ContextItem{{Name: "minikube", Current: true}})
	}))
	defer srv.Close()

	rc := resilience.DefaultRetryConfig().WithMaxAttempts(3).WithInitialDelay(0)
	c := New(srv.URL, WithRetry(rc))
	contexts, err := c.Contexts(context.Background())
	if err != nil {
		t.Fatalf("Contexts failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(contexts) != 1 || contexts[0].Name != "minikube" {
		t.Errorf("unexpected contexts: %v", contexts)
	}
}

func TestPostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Scan(context.Background(), api.ScanRequest{Scope: api.ScopeCluster})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, POST must not retry", calls.Load())
	}
}

func TestUnreachableBackend(t *testing.T) {
	c := New("http://127.0.0.1:1", noRetry())
	_, err := c.Health(context.Background())
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeUnavailable {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestDefaultHeadersApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q", got)
		}
		json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry(), WithHeaders(map[string]string{"X-Api-Key": "secret"}))
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

func TestExportIncidentRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/incidents/inc-1/export" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req api.ExportIncidentRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Format != "markdown" {
			t.Errorf("format = %q", req.Format)
		}
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Incident: db outage\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	content, mediaType, err := c.ExportIncident(context.Background(), "inc-1", "markdown")
	if err != nil {
		t.Fatalf("ExportIncident failed: %v", err)
	}
	if mediaType != "text/markdown" {
		t.Errorf("media type = %q", mediaType)
	}
	if string(content) != "# Incident: db outage\n" {
		t.Errorf("content = %q", content)
	}
}

func TestExportIncidentRejectsBadFormat(t *testing.T) {
	c := New("http://localhost:0", noRetry())
	_, _, err := c.ExportIncident(context.Background(), "inc-1", "pdf")
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestUpdateIncidentValidatesEnums(t *testing.T) {
	bad := api.IncidentStatus("closed")
	c := New("http://localhost:0", noRetry())
	_, err := c.UpdateIncident(context.Background(), "inc-1", api.UpdateIncidentRequest{Status: &bad})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestCreateScheduleValidatesCron(t *testing.T) {
	c := New("http://localhost:0", noRetry())
	_, err := c.CreateSchedule(context.Background(), api.CreateScheduleRequest{
		Scope: api.ScopeCluster,
		Cron:  "often",
	})
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestDeleteScheduleNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	if err := c.DeleteSchedule(context.Background(), "sched-1"); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
}

func TestCircuitBreakerOpensAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry(), WithCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
	}))
	for i := 0; i < 2; i++ {
		if _, err := c.Health(context.Background()); err == nil {
			t.Fatal("expected error from 500")
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}

	_, err := c.Health(context.Background())
	ue := uierr.As(err)
	if ue == nil || ue.Code != uierr.CodeUnavailable {
		t.Fatalf("expected UNAVAILABLE from open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, open circuit must not reach the backend", calls.Load())
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry(), WithCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
	}))
	for i := 0; i < 4; i++ {
		_, err := c.Analysis(context.Background(), "missing")
		ue := uierr.As(err)
		if ue == nil || ue.Code != uierr.CodeNotFound {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, 404s must not trip the breaker", calls.Load())
	}
}

func TestPlainErrorBody(t *testing.T) {
	// Backend proxies sometimes answer with non-JSON bodies.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	c := New(srv.URL, noRetry())
	_, err := c.Health(context.Background())
	var ue *uierr.Error
	if !errors.As(err, &ue) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if ue.Message == "" {
		t.Error("message should fall back to the HTTP status")
	}
}
