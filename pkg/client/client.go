// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package client wraps the KubeBeaver backend REST API. Failures come back
// as typed errors with the backend's detail message preserved, and
// idempotent reads retry with backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/resilience"
	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

// Client talks to the KubeBeaver backend over HTTP+JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	metrics    *telemetry.UIMetrics
}

// Option configures the client.
type Option func(*Client)

// New creates a backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		retry:      resilience.DefaultRetryConfig(),
		breaker:    resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "backend"}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeaders sets default headers for each request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = cloneHeaders(headers)
	}
}

// WithTimeout sets a per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		if c.httpClient == http.DefaultClient {
			c.httpClient = &http.Client{Timeout: d}
			return
		}
		c.httpClient.Timeout = d
	}
}

// WithRetry overrides the retry policy for idempotent reads.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithCircuitBreaker overrides the breaker guarding backend round trips.
func WithCircuitBreaker(config resilience.CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = resilience.NewCircuitBreaker(config)
	}
}

// WithMetrics records backend call counts and latency on the given tracker.
func WithMetrics(m *telemetry.UIMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Health reports backend readiness.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.getJSON(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Contexts lists the kubeconfig contexts the backend can reach.
func (c *Client) Contexts(ctx context.Context) ([]api.ContextItem, error) {
	var resp []api.ContextItem
	if err := c.getJSON(ctx, "/api/contexts", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Namespaces lists namespaces in the given kube context. noCache bypasses
// the backend's cache.
func (c *Client) Namespaces(ctx context.Context, kubeContext string, noCache bool) ([]string, error) {
	query := url.Values{}
	if kubeContext != "" {
		query.Set("context", kubeContext)
	}
	if noCache {
		query.Set("no_cache", "true")
	}
	var resp []string
	if err := c.getJSON(ctx, withQuery("/api/namespaces", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Resources lists resources of the given kind. Namespace is required for
// everything but Node.
func (c *Client) Resources(ctx context.Context, kind api.TargetKind, namespace, kubeContext string) ([]api.ResourceItem, error) {
	if !kind.Valid() {
		return nil, uierr.New(uierr.CodeInvalidInput, "kind must be Pod, Deployment, StatefulSet, or Node", nil)
	}
	query := url.Values{}
	query.Set("kind", string(kind))
	if namespace != "" {
		query.Set("namespace", namespace)
	}
	if kubeContext != "" {
		query.Set("context", kubeContext)
	}
	var resp []api.ResourceItem
	if err := c.getJSON(ctx, withQuery("/api/resources", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Analyze runs an analysis on a single resource. Not retried: the backend
// run is expensive and already cached upstream.
func (c *Client) Analyze(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.AnalyzeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists saved analyses, newest first, optionally filtered by kube
// context.
func (c *Client) History(ctx context.Context, limit int, kubeContext string) ([]api.AnalysisRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if kubeContext != "" {
		query.Set("context", kubeContext)
	}
	var resp []api.AnalysisRecord
	if err := c.getJSON(ctx, withQuery("/api/history", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Analysis fetches one saved analysis by id.
func (c *Client) Analysis(ctx context.Context, analysisID string) (*api.AnalysisRecord, error) {
	if strings.TrimSpace(analysisID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "analysis id is required", nil)
	}
	var resp api.AnalysisRecord
	if err := c.getJSON(ctx, "/api/history/"+url.PathEscape(analysisID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAnalysis removes a saved analysis.
func (c *Client) DeleteAnalysis(ctx context.Context, analysisID string) error {
	if strings.TrimSpace(analysisID) == "" {
		return uierr.New(uierr.CodeInvalidInput, "analysis id is required", nil)
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/history/"+url.PathEscape(analysisID), nil, nil)
}

// Explain fetches the explainability slice of a saved analysis.
func (c *Client) Explain(ctx context.Context, analysisID string) (*api.ExplainResponse, error) {
	if strings.TrimSpace(analysisID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "analysis id is required", nil)
	}
	var resp api.ExplainResponse
	if err := c.getJSON(ctx, "/api/analysis/"+url.PathEscape(analysisID)+"/explain", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Compare diffs two saved analyses.
func (c *Client) Compare(ctx context.Context, analysisIDA, analysisIDB string) (*api.CompareResponse, error) {
	if strings.TrimSpace(analysisIDA) == "" || strings.TrimSpace(analysisIDB) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "two analysis ids are required", nil)
	}
	req := api.CompareRequest{AnalysisIDA: analysisIDA, AnalysisIDB: analysisIDB}
	var resp api.CompareResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/compare", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// getJSON is doJSON with the retry policy applied; only used for GETs.
func (c *Client) getJSON(ctx context.Context, path string, resp any) error {
	return c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, path, nil, resp)
	})
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, resp any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return uierr.New(uierr.CodeInternal, "failed to encode request", err)
		}
		body = bytes.NewReader(raw)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return uierr.New(uierr.CodeInternal, "failed to build request", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(ctx, request)

	response, err := c.send(ctx, request, method, path)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseHTTPError(response)
	}
	if resp == nil {
		return nil
	}
	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return uierr.New(uierr.CodeBackend, "failed to read response", err)
	}
	if err := json.Unmarshal(bodyBytes, resp); err != nil {
		return uierr.New(uierr.CodeBackend, "failed to decode response", err)
	}
	return nil
}

// doRaw performs a request and returns the body and media type verbatim.
// Used for incident exports, whose payload is markdown or pre-rendered JSON.
func (c *Client) doRaw(ctx context.Context, method, path string, payload any) ([]byte, string, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, "", uierr.New(uierr.CodeInternal, "failed to encode request", err)
		}
		body = bytes.NewReader(raw)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, "", uierr.New(uierr.CodeInternal, "failed to build request", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(ctx, request)

	response, err := c.send(ctx, request, method, path)
	if err != nil {
		return nil, "", err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, "", parseHTTPError(response)
	}
	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, "", uierr.New(uierr.CodeBackend, "failed to read response", err)
	}
	return bodyBytes, response.Header.Get("Content-Type"), nil
}

// errServerStatus marks a 5xx response inside the breaker callback so it
// counts as a failure while the response still reaches the caller.
var errServerStatus = errors.New("backend returned a server error")

// send runs one round trip through the circuit breaker. Transport failures
// and 5xx responses count against the breaker; 4xx responses are the
// caller's problem and do not. An open circuit fails fast with
// uierr.CodeUnavailable before any connection is made.
func (c *Client) send(ctx context.Context, request *http.Request, method, path string) (*http.Response, error) {
	var response *http.Response
	start := time.Now()
	err := c.breaker.Call(ctx, func() error {
		resp, doErr := c.httpClient.Do(request)
		if doErr != nil {
			return transportError(doErr)
		}
		response = resp
		if resp.StatusCode >= 500 {
			return errServerStatus
		}
		return nil
	})
	c.recordBreakerState(ctx)

	if err != nil && !errors.Is(err, errServerStatus) {
		c.recordCall(ctx, method, path, 0, start)
		return nil, err
	}
	c.recordCall(ctx, method, path, response.StatusCode, start)
	return response, nil
}

func (c *Client) recordBreakerState(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	var state int64
	switch c.breaker.State() {
	case resilience.StateOpen:
		state = 0
	case resilience.StateHalfOpen:
		state = 1
	default:
		state = 2
	}
	c.metrics.RecordCircuitBreakerState(ctx, state)
}

func (c *Client) applyHeaders(ctx context.Context, request *http.Request) {
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))
}

func (c *Client) recordCall(ctx context.Context, method, path string, status int, start time.Time) {
	if c.metrics == nil {
		return
	}
	endpoint := path
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	c.metrics.RecordBackendCall(ctx, method+" "+endpoint, status, float64(time.Since(start).Milliseconds()))
}

// transportError classifies a round-trip failure. Deadlines become
// timeouts, everything else means the backend is unreachable.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return uierr.New(uierr.CodeTimeout, "backend call timed out", err)
	}
	return uierr.New(uierr.CodeUnavailable, "backend unreachable", err)
}

// parseHTTPError decodes the backend's error envelope ({"detail": ...})
// into a typed error carrying the original status.
func parseHTTPError(response *http.Response) error {
	detail := response.Status
	payload, _ := io.ReadAll(response.Body)
	if len(payload) > 0 {
		var decoded struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(payload, &decoded); err == nil && strings.TrimSpace(decoded.Detail) != "" {
			detail = strings.TrimSpace(decoded.Detail)
		}
	}
	code := uierr.FromStatusCode(response.StatusCode)
	return uierr.New(code, detail, nil).WithContext("status", response.StatusCode)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
