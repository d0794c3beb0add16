// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/client"
	"github.com/fgbona/kubebeaver-sub000/pkg/config"
	"github.com/fgbona/kubebeaver-sub000/pkg/highlight"
	"github.com/fgbona/kubebeaver-sub000/pkg/query"
	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var (
	webPartials = template.Must(template.New("partials").Funcs(templateFuncs()).ParseFS(webFS,
		"web/templates/alert.html",
		"web/templates/health.html",
		"web/templates/context_picker.html",
		"web/templates/namespace_picker.html",
		"web/templates/resource_picker.html",
		"web/templates/analysis_result.html",
		"web/templates/history_list.html",
		"web/templates/history_detail.html",
		"web/templates/explain.html",
		"web/templates/compare_result.html",
		"web/templates/scans_list.html",
		"web/templates/scan_detail.html",
		"web/templates/incidents_list.html",
		"web/templates/incident_detail.html",
		"web/templates/schedules_list.html",
	))
	pageTemplates = map[string]*template.Template{}
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
	}
}

func init() {
	for _, page := range []string{"analyze", "history", "history_item", "compare", "scans", "scan_item", "incidents", "incident_item", "schedules"} {
		pageTemplates[page] = mustPageTemplate("web/templates/layout.html", "web/templates/"+page+".html")
	}
}

func mustPageTemplate(layout, page string) *template.Template {
	tmpl, err := template.New("page").Funcs(templateFuncs()).ParseFS(webFS, layout, page)
	if err != nil {
		panic(err)
	}
	return tmpl
}

type webServer struct {
	cfg     *config.Config
	backend *client.Client
	pickers *query.Pickers
	metrics *telemetry.UIMetrics
	logger  *slog.Logger
	tracer  oteltrace.Tracer
}

type pageData struct {
	Title string
	Page  string
	Data  any
}

func runWeb(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *telemetry.UIMetrics) {
	backend := newBackendClient(cfg, metrics)
	server := &webServer{
		cfg:     cfg,
		backend: backend,
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer("kubebeaver/ui"),
		pickers: query.NewPickers(backend, query.TTLs{
			Contexts:   cfg.Cache.TTLContexts,
			Namespaces: cfg.Cache.TTLNamespaces,
			Resources:  cfg.Cache.TTLResources,
		}, query.WithPickersLogger(logger), query.WithPickersMetrics(metrics)),
	}

	mux := http.NewServeMux()

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		fatal(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	mux.HandleFunc("/", server.handleRoot)
	mux.HandleFunc("/analyze", server.handleAnalyzePage)
	mux.HandleFunc("/history", server.handleHistoryPage)
	mux.HandleFunc("/history/", server.handleHistoryItemPage)
	mux.HandleFunc("/compare", server.handleComparePage)
	mux.HandleFunc("/scans", server.handleScansPage)
	mux.HandleFunc("/scans/", server.handleScanItemPage)
	mux.HandleFunc("/incidents", server.handleIncidentsPage)
	mux.HandleFunc("/incidents/", server.handleIncidentItemPage)
	mux.HandleFunc("/schedules", server.handleSchedulesPage)

	mux.HandleFunc("/ui/health", server.handleHealth)
	mux.HandleFunc("/ui/pickers/contexts", server.handleContextsPicker)
	mux.HandleFunc("/ui/pickers/namespaces", server.handleNamespacesPicker)
	mux.HandleFunc("/ui/pickers/resources", server.handleResourcesPicker)
	mux.HandleFunc("/ui/analyze", server.handleAnalyze)
	mux.HandleFunc("/ui/history/list", server.handleHistoryList)
	mux.HandleFunc("/ui/history/", server.handleHistoryUI)
	mux.HandleFunc("/ui/compare", server.handleCompare)
	mux.HandleFunc("/ui/scans", server.handleScanRun)
	mux.HandleFunc("/ui/scans/list", server.handleScansList)
	mux.HandleFunc("/ui/scans/", server.handleScanUI)
	mux.HandleFunc("/ui/incidents", server.handleIncidentCreate)
	mux.HandleFunc("/ui/incidents/list", server.handleIncidentsList)
	mux.HandleFunc("/ui/incidents/", server.handleIncidentUI)
	mux.HandleFunc("/ui/schedules", server.handleScheduleCreate)
	mux.HandleFunc("/ui/schedules/list", server.handleSchedulesList)
	mux.HandleFunc("/ui/schedules/", server.handleScheduleUI)

	httpServer := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           server.instrument(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	displayAddr := cfg.Web.Addr
	if strings.HasPrefix(displayAddr, ":") {
		displayAddr = "localhost" + displayAddr
	}
	logger.Info("dashboard listening", "addr", cfg.Web.Addr, "url", "http://"+displayAddr, "backend", cfg.Backend.URL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal(err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument tags every request with an id, opens a span around the handler,
// and emits the access log line and request metrics.
func (s *webServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := telemetry.WithRequestID(r.Context(), requestID)
		ctx, span := s.tracer.Start(ctx, r.Method+" "+r.URL.Path)
		span.SetAttributes(telemetry.RequestAttributes(r.URL.Path, "", requestID)...)
		defer span.End()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(ctx))
		durationMs := float64(time.Since(start).Microseconds()) / 1000.0

		s.metrics.RecordRequest(ctx, r.URL.Path, recorder.status, durationMs)
		s.logger.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", durationMs,
		)
	})
}

// requestContext bounds a fragment handler by the backend timeout.
func (s *webServer) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.Backend.Timeout)
}

func (s *webServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/analyze", http.StatusFound)
}

func (s *webServer) handleAnalyzePage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "analyze", "Analyze", nil)
}

func (s *webServer) handleHistoryPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "history", "History", nil)
}

func (s *webServer) handleComparePage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "compare", "Compare", nil)
}

func (s *webServer) handleScansPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "scans", "Scans", nil)
}

func (s *webServer) handleIncidentsPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "incidents", "Incidents", nil)
}

func (s *webServer) handleSchedulesPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "schedules", "Schedules", nil)
}

type itemPage struct {
	ID string
}

func (s *webServer) handleHistoryItemPage(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/history/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	renderPage(w, "history_item", fmt.Sprintf("Analysis %s", id), itemPage{ID: id})
}

func (s *webServer) handleScanItemPage(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/scans/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	renderPage(w, "scan_item", fmt.Sprintf("Scan %s", id), itemPage{ID: id})
}

func (s *webServer) handleIncidentItemPage(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/incidents/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	renderPage(w, "incident_item", fmt.Sprintf("Incident %s", id), itemPage{ID: id})
}

func pathID(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func renderPage(w http.ResponseWriter, pageName, title string, data any) {
	tmpl, ok := pageTemplates[pageName]
	if !ok {
		http.Error(w, "page template not found", http.StatusInternalServerError)
		return
	}
	payload := pageData{Title: title, Page: pageName, Data: data}
	if err := tmpl.ExecuteTemplate(w, "layout", payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderPartial(w http.ResponseWriter, name string, data any) {
	if err := webPartials.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type alertData struct {
	Message     string
	Recoverable bool
}

// renderAlert turns an action error into a dismissible alert fragment. The
// client-side status stays 200 so the fragment replaces the target.
func (s *webServer) renderAlert(ctx context.Context, w http.ResponseWriter, err error) {
	ue := uierr.As(err)
	s.metrics.RecordError(ctx, ue)
	s.logger.WarnContext(ctx, "action failed", "code", string(ue.Code), "error", ue.Error())
	renderPartial(w, "alert", alertData{Message: ue.Message, Recoverable: ue.Recoverable})
}

type healthData struct {
	Status        string
	KubeConnected bool
	LLMConfigured bool
	LLMProvider   string
	Error         string
}

func (s *webServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := healthData{}
	health, err := s.backend.Health(ctx)
	if err != nil {
		data.Status = "unreachable"
		data.Error = uierr.As(err).Message
		renderPartial(w, "health", data)
		return
	}
	data.Status = health.Status
	data.KubeConnected = health.KubeConnected
	data.LLMConfigured = health.LLMConfigured
	data.LLMProvider = health.LLMProvider
	renderPartial(w, "health", data)
}

type contextOption struct {
	Name    string
	Current bool
}

type contextPickerData struct {
	Contexts []contextOption
	Selected string
	Error    string
	Empty    bool
}

func (s *webServer) handleContextsPicker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := contextPickerData{Selected: strings.TrimSpace(r.URL.Query().Get("selected"))}
	contexts, err := s.pickers.Contexts(ctx)
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "context_picker", data)
		return
	}
	for _, item := range contexts {
		data.Contexts = append(data.Contexts, contextOption{Name: item.Name, Current: item.Current})
		if data.Selected == "" && item.Current {
			data.Selected = item.Name
		}
	}
	data.Empty = len(data.Contexts) == 0
	renderPartial(w, "context_picker", data)
}

type namespacePickerData struct {
	Context    string
	Namespaces []string
	Selected   string
	Error      string
	Empty      bool
}

func (s *webServer) handleNamespacesPicker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	kubeContext := strings.TrimSpace(r.URL.Query().Get("context"))
	data := namespacePickerData{
		Context:  kubeContext,
		Selected: strings.TrimSpace(r.URL.Query().Get("selected")),
	}

	// A context switch drops every cached query under the old context.
	if previous := strings.TrimSpace(r.URL.Query().Get("previous_context")); previous != "" && previous != kubeContext {
		s.pickers.SelectContext(previous)
	}

	var namespaces []string
	var err error
	if r.Method == http.MethodPost {
		namespaces, err = s.pickers.RefreshNamespaces(ctx, kubeContext)
	} else {
		namespaces, err = s.pickers.Namespaces(ctx, kubeContext)
	}
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "namespace_picker", data)
		return
	}
	data.Namespaces = namespaces
	data.Empty = len(namespaces) == 0
	renderPartial(w, "namespace_picker", data)
}

type resourceOption struct {
	Name      string
	Namespace string
}

type resourcePickerData struct {
	Context   string
	Namespace string
	Kind      string
	Resources []resourceOption
	Selected  string
	Error     string
	Empty     bool
}

func (s *webServer) handleResourcesPicker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	kubeContext := strings.TrimSpace(r.URL.Query().Get("context"))
	namespace := strings.TrimSpace(r.URL.Query().Get("namespace"))
	kind := api.TargetKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = api.KindPod
	}
	data := resourcePickerData{
		Context:   kubeContext,
		Namespace: namespace,
		Kind:      string(kind),
		Selected:  strings.TrimSpace(r.URL.Query().Get("selected")),
	}

	// A namespace switch drops cached resource lists under the old one.
	if previous := strings.TrimSpace(r.URL.Query().Get("previous_namespace")); previous != "" && previous != namespace {
		s.pickers.SelectNamespace(kubeContext, previous)
	}

	resources, err := s.pickers.Resources(ctx, kubeContext, namespace, kind)
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "resource_picker", data)
		return
	}
	for _, item := range resources {
		data.Resources = append(data.Resources, resourceOption{Name: item.Name, Namespace: item.Namespace})
	}
	data.Empty = len(data.Resources) == 0
	renderPartial(w, "resource_picker", data)
}

type rootCauseRow struct {
	Cause      string
	Confidence string
	Refs       string
}

type analysisResultData struct {
	Summary            string
	RootCauses         []rootCauseRow
	RecommendedActions []string
	KubectlCommands    []string
	FollowUpQuestions  []string
	RiskNotes          []string
	Evidence           template.HTML
	Truncated          bool
	SectionsTruncated  []string
	TokensUsed         int
	ResponseTimeMs     int
	BackendError       string
}

func (s *webServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := api.AnalyzeRequest{
		Context:             strings.TrimSpace(r.FormValue("context")),
		Namespace:           strings.TrimSpace(r.FormValue("namespace")),
		Kind:                api.TargetKind(strings.TrimSpace(r.FormValue("kind"))),
		Name:                strings.TrimSpace(r.FormValue("name")),
		IncludePreviousLogs: r.FormValue("include_previous_logs") == "on",
	}
	oteltrace.SpanFromContext(ctx).SetAttributes(telemetry.TargetAttributes(string(req.Kind), req.Namespace, req.Name, req.Context)...)
	resp, err := s.backend.Analyze(ctx, req)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	renderPartial(w, "analysis_result", buildAnalysisResult(resp))
}

func buildAnalysisResult(resp *api.AnalyzeResponse) analysisResultData {
	data := analysisResultData{
		Summary:            resp.AnalysisJSON.Summary,
		RecommendedActions: resp.AnalysisJSON.RecommendedActions,
		KubectlCommands:    resp.AnalysisJSON.KubectlCommands,
		FollowUpQuestions:  resp.AnalysisJSON.FollowUpQuestions,
		RiskNotes:          resp.AnalysisJSON.RiskNotes,
		Truncated:          resp.TruncationReport.Truncated,
		SectionsTruncated:  resp.TruncationReport.SectionsTruncated,
		TokensUsed:         resp.TokensUsed,
		ResponseTimeMs:     resp.ResponseTimeMs,
		BackendError:       resp.Error,
	}
	for _, cause := range resp.AnalysisJSON.LikelyRootCauses {
		data.RootCauses = append(data.RootCauses, rootCauseRow{
			Cause:      cause.Cause,
			Confidence: cause.Confidence,
			Refs:       strings.Join(cause.EvidenceRefs, ", "),
		})
	}
	if len(resp.Evidence) > 0 {
		data.Evidence = highlight.RenderPretty(string(resp.Evidence))
	}
	return data
}
