// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/highlight"
	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

type scanRow struct {
	ID            string
	CreatedAt     string
	Context       string
	Scope         string
	Namespace     string
	FindingsCount int
	Failed        bool
}

type scansListData struct {
	Scans []scanRow
	Error string
	Empty bool
}

func (s *webServer) handleScansList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := scansListData{}
	records, err := s.backend.Scans(ctx, queryLimit(r))
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "scans_list", data)
		return
	}
	for _, record := range records {
		data.Scans = append(data.Scans, scanRow{
			ID:            record.ID,
			CreatedAt:     record.CreatedAt,
			Context:       record.Context,
			Scope:         record.Scope,
			Namespace:     record.Namespace,
			FindingsCount: record.FindingsCount,
			Failed:        record.Error != "",
		})
	}
	data.Empty = len(data.Scans) == 0
	renderPartial(w, "scans_list", data)
}

type findingRow struct {
	ID                string
	Severity          string
	Category          string
	Title             string
	Description       string
	Affected          []string
	SuggestedCommands []string
	Evidence          template.HTML
	OccurredAt        string
}

type scanDetailData struct {
	ID              string
	CreatedAt       string
	Scope           string
	Namespace       string
	SummaryMarkdown string
	Counts          map[string]int
	DurationMs      int
	Findings        []findingRow
	BackendError    string
	Empty           bool
}

func (s *webServer) handleScanRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := api.ScanRequest{
		Context:     strings.TrimSpace(r.FormValue("context")),
		Scope:       api.ScanScope(strings.TrimSpace(r.FormValue("scope"))),
		Namespace:   strings.TrimSpace(r.FormValue("namespace")),
		IncludeLogs: r.FormValue("include_logs") == "on",
	}
	resp, err := s.backend.Scan(ctx, req)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	oteltrace.SpanFromContext(ctx).SetAttributes(telemetry.ScanAttributes(string(req.Scope), len(resp.Findings))...)

	data := scanDetailData{
		ID:              resp.ID,
		CreatedAt:       resp.CreatedAt,
		Scope:           string(req.Scope),
		Namespace:       req.Namespace,
		SummaryMarkdown: resp.SummaryMarkdown,
		Counts:          resp.Counts,
		DurationMs:      resp.DurationMs,
		Findings:        buildFindingRows(resp.Findings),
		BackendError:    resp.Error,
	}
	data.Empty = len(data.Findings) == 0
	renderPartial(w, "scan_detail", data)
}

func (s *webServer) handleScanUI(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ui/scans/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || parts[1] != "detail" {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	detail, err := s.backend.ScanDetail(ctx, parts[0])
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	data := scanDetailData{
		ID:              detail.ID,
		CreatedAt:       detail.CreatedAt,
		Scope:           detail.Scope,
		Namespace:       detail.Namespace,
		SummaryMarkdown: detail.SummaryMarkdown,
		Findings:        buildFindingRows(detail.Findings),
		BackendError:    detail.Error,
	}
	data.Empty = len(data.Findings) == 0
	renderPartial(w, "scan_detail", data)
}

func buildFindingRows(findings []api.Finding) []findingRow {
	rows := make([]findingRow, 0, len(findings))
	for _, finding := range findings {
		row := findingRow{
			ID:                finding.ID,
			Severity:          string(finding.Severity),
			Category:          finding.Category,
			Title:             finding.Title,
			Description:       finding.Description,
			SuggestedCommands: finding.SuggestedCommands,
			OccurredAt:        finding.OccurredAt,
		}
		for _, ref := range finding.AffectedRefs {
			row.Affected = append(row.Affected, formatTarget(ref.Kind, ref.Namespace, ref.Name))
		}
		if finding.EvidenceSnippet != "" {
			row.Evidence = highlight.RenderPretty(finding.EvidenceSnippet)
		}
		rows = append(rows, row)
	}
	return rows
}

type incidentRow struct {
	ID        string
	CreatedAt string
	Title     string
	Severity  string
	Status    string
	Tags      string
}

type incidentsListData struct {
	Incidents []incidentRow
	Error     string
	Empty     bool
}

func (s *webServer) handleIncidentsList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := incidentsListData{}
	records, err := s.backend.Incidents(ctx, queryLimit(r))
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "incidents_list", data)
		return
	}
	for _, record := range records {
		data.Incidents = append(data.Incidents, incidentRow{
			ID:        record.ID,
			CreatedAt: record.CreatedAt,
			Title:     record.Title,
			Severity:  string(record.Severity),
			Status:    string(record.Status),
			Tags:      strings.Join(record.Tags, ", "),
		})
	}
	data.Empty = len(data.Incidents) == 0
	renderPartial(w, "incidents_list", data)
}

// handleIncidentCreate opens an incident, either from scratch or seeded with
// a scan or analysis when the form carries a reference id.
func (s *webServer) handleIncidentCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	title := strings.TrimSpace(r.FormValue("title"))
	severity := api.Severity(strings.TrimSpace(r.FormValue("severity")))

	var err error
	switch {
	case strings.TrimSpace(r.FormValue("scan_id")) != "":
		_, err = s.backend.IncidentFromScan(ctx, api.CreateIncidentFromScanRequest{
			ScanID:   strings.TrimSpace(r.FormValue("scan_id")),
			Title:    title,
			Severity: severity,
		})
	case strings.TrimSpace(r.FormValue("analysis_id")) != "":
		_, err = s.backend.IncidentFromAnalysis(ctx, api.CreateIncidentFromAnalysisRequest{
			AnalysisID: strings.TrimSpace(r.FormValue("analysis_id")),
			Title:      title,
			Severity:   severity,
		})
	default:
		_, err = s.backend.CreateIncident(ctx, api.CreateIncidentRequest{
			Title:       title,
			Description: strings.TrimSpace(r.FormValue("description")),
			Severity:    severity,
			Tags:        splitTags(r.FormValue("tags")),
		})
	}
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleIncidentsList(w, r)
}

func (s *webServer) handleIncidentUI(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ui/incidents/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch parts[1] {
	case "detail":
		s.handleIncidentDetail(w, r, id)
	case "update":
		s.handleIncidentUpdate(w, r, id)
	case "notes":
		s.handleIncidentNote(w, r, id)
	case "items":
		s.handleIncidentItem(w, r, id)
	case "export":
		s.handleIncidentExport(w, r, id)
	case "delete":
		s.handleIncidentDelete(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type timelineRow struct {
	Type      string
	CreatedAt string
	ItemType  string
	RefID     string
	Content   string
}

type incidentDetailData struct {
	ID          string
	CreatedAt   string
	Title       string
	Description string
	Severity    string
	Status      string
	Tags        string
	Timeline    []timelineRow
}

func (s *webServer) handleIncidentDetail(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	detail, err := s.backend.Incident(ctx, id)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	renderPartial(w, "incident_detail", buildIncidentDetail(detail))
}

func buildIncidentDetail(detail *api.IncidentDetail) incidentDetailData {
	data := incidentDetailData{
		ID:          detail.ID,
		CreatedAt:   detail.CreatedAt,
		Title:       detail.Title,
		Description: detail.Description,
		Severity:    string(detail.Severity),
		Status:      string(detail.Status),
		Tags:        strings.Join(detail.Tags, ", "),
	}
	for _, entry := range detail.Timeline {
		data.Timeline = append(data.Timeline, timelineRow{
			Type:      entry.Type,
			CreatedAt: entry.CreatedAt,
			ItemType:  entry.ItemType,
			RefID:     entry.RefID,
			Content:   entry.Content,
		})
	}
	return data
}

func (s *webServer) handleIncidentUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := api.UpdateIncidentRequest{}
	if value := strings.TrimSpace(r.FormValue("title")); value != "" {
		req.Title = &value
	}
	if value := strings.TrimSpace(r.FormValue("description")); value != "" {
		req.Description = &value
	}
	if value := strings.TrimSpace(r.FormValue("status")); value != "" {
		status := api.IncidentStatus(value)
		req.Status = &status
	}
	if value := strings.TrimSpace(r.FormValue("severity")); value != "" {
		severity := api.Severity(value)
		req.Severity = &severity
	}
	if value := strings.TrimSpace(r.FormValue("tags")); value != "" {
		req.Tags = splitTags(value)
	}

	detail, err := s.backend.UpdateIncident(ctx, id, req)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	renderPartial(w, "incident_detail", buildIncidentDetail(detail))
}

func (s *webServer) handleIncidentNote(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	if _, err := s.backend.AddIncidentNote(ctx, id, r.FormValue("content")); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleIncidentDetail(w, r, id)
}

func (s *webServer) handleIncidentItem(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	req := api.AddIncidentItemRequest{
		Type:  strings.TrimSpace(r.FormValue("type")),
		RefID: strings.TrimSpace(r.FormValue("ref_id")),
	}
	if _, err := s.backend.AddIncidentItem(ctx, id, req); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleIncidentDetail(w, r, id)
}

// handleIncidentExport streams the backend's markdown or json export through.
// The yaml format is produced here from the json export, the backend does not
// know about it.
func (s *webServer) handleIncidentExport(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	format := strings.TrimSpace(r.URL.Query().Get("format"))
	if format == "" {
		format = "markdown"
	}

	backendFormat := format
	if format == "yaml" {
		backendFormat = "json"
	}
	body, mediaType, err := s.backend.ExportIncident(ctx, id, backendFormat)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}

	ext := "md"
	switch format {
	case "json":
		ext = "json"
	case "yaml":
		converted, convErr := jsonToYAML(body)
		if convErr != nil {
			s.renderAlert(ctx, w, convErr)
			return
		}
		body = converted
		mediaType = "application/yaml"
		ext = "yaml"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=incident-%s.%s", id, ext))
	_, _ = w.Write(body)
}

func jsonToYAML(body []byte) ([]byte, error) {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, err
	}
	return yaml.Marshal(value)
}

func (s *webServer) handleIncidentDelete(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	if err := s.backend.DeleteIncident(ctx, id); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleIncidentsList(w, r)
}

type scheduleRow struct {
	ID        string
	Context   string
	Scope     string
	Namespace string
	Cron      string
	Enabled   bool
	LastRunAt string
}

type schedulesListData struct {
	Schedules []scheduleRow
	Error     string
	Empty     bool
}

func (s *webServer) handleSchedulesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := schedulesListData{}
	records, err := s.backend.Schedules(ctx, queryLimit(r))
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "schedules_list", data)
		return
	}
	for _, record := range records {
		data.Schedules = append(data.Schedules, scheduleRow{
			ID:        record.ID,
			Context:   record.Context,
			Scope:     string(record.Scope),
			Namespace: record.Namespace,
			Cron:      record.Cron,
			Enabled:   record.Enabled,
			LastRunAt: record.LastRunAt,
		})
	}
	data.Empty = len(data.Schedules) == 0
	renderPartial(w, "schedules_list", data)
}

func (s *webServer) handleScheduleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := api.CreateScheduleRequest{
		Context:   strings.TrimSpace(r.FormValue("context")),
		Scope:     api.ScanScope(strings.TrimSpace(r.FormValue("scope"))),
		Namespace: strings.TrimSpace(r.FormValue("namespace")),
		Cron:      strings.TrimSpace(r.FormValue("cron")),
		Enabled:   r.FormValue("enabled") == "on",
	}
	if _, err := s.backend.CreateSchedule(ctx, req); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleSchedulesList(w, r)
}

func (s *webServer) handleScheduleUI(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ui/schedules/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch parts[1] {
	case "update":
		s.handleScheduleUpdate(w, r, id)
	case "delete":
		s.handleScheduleDelete(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *webServer) handleScheduleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := api.UpdateScheduleRequest{}
	if value := strings.TrimSpace(r.FormValue("context")); value != "" {
		req.Context = &value
	}
	if value := strings.TrimSpace(r.FormValue("scope")); value != "" {
		scope := api.ScanScope(value)
		req.Scope = &scope
	}
	if value := strings.TrimSpace(r.FormValue("namespace")); value != "" {
		req.Namespace = &value
	}
	if value := strings.TrimSpace(r.FormValue("cron")); value != "" {
		req.Cron = &value
	}
	if value := strings.TrimSpace(r.FormValue("enabled")); value != "" {
		enabled := value == "true"
		req.Enabled = &enabled
	}

	if _, err := s.backend.UpdateSchedule(ctx, id, req); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleSchedulesList(w, r)
}

func (s *webServer) handleScheduleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	if err := s.backend.DeleteSchedule(ctx, id); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleSchedulesList(w, r)
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
