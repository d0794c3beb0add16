// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/highlight"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

const defaultListLimit = 50

type historyRow struct {
	ID        string
	CreatedAt string
	Context   string
	Target    string
	Summary   string
	Failed    bool
}

type historyListData struct {
	Analyses []historyRow
	Error    string
	Empty    bool
}

func (s *webServer) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	data := historyListData{}
	records, err := s.backend.History(ctx, queryLimit(r), strings.TrimSpace(r.URL.Query().Get("context")))
	if err != nil {
		data.Error = uierr.As(err).Message
		renderPartial(w, "history_list", data)
		return
	}
	for _, record := range records {
		data.Analyses = append(data.Analyses, historyRow{
			ID:        record.ID,
			CreatedAt: record.CreatedAt,
			Context:   record.Context,
			Target:    formatTarget(record.Kind, record.Namespace, record.Name),
			Summary:   truncateCell(record.AnalysisJSON.Summary, 100),
			Failed:    record.Error != "",
		})
	}
	data.Empty = len(data.Analyses) == 0
	renderPartial(w, "history_list", data)
}

func (s *webServer) handleHistoryUI(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ui/history/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch parts[1] {
	case "detail":
		s.handleHistoryDetail(w, r, id)
	case "explain":
		s.handleExplain(w, r, id)
	case "delete":
		s.handleHistoryDelete(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type historyDetailData struct {
	ID           string
	CreatedAt    string
	Context      string
	Target       string
	Result       analysisResultData
	Evidence     template.HTML
	BackendError string
}

func (s *webServer) handleHistoryDetail(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	record, err := s.backend.Analysis(ctx, id)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	data := historyDetailData{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Context:   record.Context,
		Target:    formatTarget(record.Kind, record.Namespace, record.Name),
		Result: analysisResultData{
			Summary:            record.AnalysisJSON.Summary,
			RecommendedActions: record.AnalysisJSON.RecommendedActions,
			KubectlCommands:    record.AnalysisJSON.KubectlCommands,
			FollowUpQuestions:  record.AnalysisJSON.FollowUpQuestions,
			RiskNotes:          record.AnalysisJSON.RiskNotes,
		},
		BackendError: record.Error,
	}
	for _, cause := range record.AnalysisJSON.LikelyRootCauses {
		data.Result.RootCauses = append(data.Result.RootCauses, rootCauseRow{
			Cause:      cause.Cause,
			Confidence: cause.Confidence,
			Refs:       strings.Join(cause.EvidenceRefs, ", "),
		})
	}
	if len(record.EvidenceSummary) > 0 {
		data.Evidence = highlight.RenderPretty(string(record.EvidenceSummary))
	}
	renderPartial(w, "history_detail", data)
}

type explainData struct {
	AnalysisID string
	Heuristics []string
	Why        []string
	Uncertain  []string
}

func (s *webServer) handleExplain(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	resp, err := s.backend.Explain(ctx, id)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	renderPartial(w, "explain", explainData{
		AnalysisID: resp.AnalysisID,
		Heuristics: resp.Heuristics,
		Why:        resp.Why,
		Uncertain:  resp.Uncertain,
	})
}

func (s *webServer) handleHistoryDelete(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	if err := s.backend.DeleteAnalysis(ctx, id); err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	s.handleHistoryList(w, r)
}

type changeRow struct {
	Type   string
	Path   string
	Before string
	After  string
	Impact string
}

type compareSide struct {
	ID              string
	CreatedAt       string
	Target          string
	KubectlCommands []string
}

type compareResultData struct {
	DiffSummary     string
	Changes         []changeRow
	LikelyReasoning string
	SideA           compareSide
	SideB           compareSide
	BackendError    string
	Empty           bool
}

func (s *webServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	idA := strings.TrimSpace(r.FormValue("analysis_id_a"))
	idB := strings.TrimSpace(r.FormValue("analysis_id_b"))
	resp, err := s.backend.Compare(ctx, idA, idB)
	if err != nil {
		s.renderAlert(ctx, w, err)
		return
	}
	data := compareResultData{
		DiffSummary:     resp.DiffSummary,
		LikelyReasoning: resp.LikelyReasoning,
		SideA:           buildCompareSide(resp.AnalysisA),
		SideB:           buildCompareSide(resp.AnalysisB),
		BackendError:    resp.Error,
	}
	for _, change := range resp.Changes {
		data.Changes = append(data.Changes, changeRow{
			Type:   change.Type,
			Path:   change.Path,
			Before: formatChangeValue(change.Before),
			After:  formatChangeValue(change.After),
			Impact: change.Impact,
		})
	}
	data.Empty = len(data.Changes) == 0
	renderPartial(w, "compare_result", data)
}

func buildCompareSide(meta api.CompareMeta) compareSide {
	return compareSide{
		ID:              meta.ID,
		CreatedAt:       meta.CreatedAt,
		Target:          formatTarget(meta.Kind, meta.Namespace, meta.Name),
		KubectlCommands: meta.KubectlCommands,
	}
}

func formatTarget(kind, namespace, name string) string {
	if namespace == "" {
		return kind + "/" + name
	}
	return namespace + "/" + kind + "/" + name
}

func formatChangeValue(value any) string {
	if value == nil {
		return "-"
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return highlight.PrettyPrint(string(payload))
	}
}

func queryLimit(r *http.Request) int {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func truncateCell(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 3 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-3]) + "..."
}
