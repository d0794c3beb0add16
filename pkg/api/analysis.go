// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package api defines the request and response types of the KubeBeaver
// backend REST API. Field names follow the backend's JSON wire format.
package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TargetKind identifies the Kubernetes resource kind an analysis targets.
type TargetKind string

const (
	KindPod         TargetKind = "Pod"
	KindDeployment  TargetKind = "Deployment"
	KindStatefulSet TargetKind = "StatefulSet"
	KindNode        TargetKind = "Node"
)

// Valid reports whether the kind is one the backend accepts.
func (k TargetKind) Valid() bool {
	switch k {
	case KindPod, KindDeployment, KindStatefulSet, KindNode:
		return true
	}
	return false
}

// HealthResponse is the backend readiness report.
type HealthResponse struct {
	Status        string `json:"status"`
	KubeConnected bool   `json:"kube_connected"`
	LLMConfigured bool   `json:"llm_configured"`
	LLMProvider   string `json:"llm_provider,omitempty"`
}

// ContextItem is one kubeconfig context known to the backend.
type ContextItem struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

// ResourceItem is one resource in a picker list.
type ResourceItem struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Kind      string `json:"kind"`
}

// AnalyzeRequest asks the backend to analyze a single resource.
type AnalyzeRequest struct {
	Context             string     `json:"context,omitempty"`
	Namespace           string     `json:"namespace,omitempty"`
	Kind                TargetKind `json:"kind"`
	Name                string     `json:"name"`
	IncludePreviousLogs bool       `json:"include_previous_logs"`
}

// Validate mirrors the backend's request checks so obvious mistakes fail
// before a round trip.
func (r AnalyzeRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("kind must be Pod, Deployment, StatefulSet, or Node")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Kind != KindNode && strings.TrimSpace(r.Namespace) == "" {
		return fmt.Errorf("namespace required for %s", r.Kind)
	}
	return nil
}

// RootCause is one hypothesis in an analysis, with pointers into the
// evidence bundle.
type RootCause struct {
	Cause        string   `json:"cause"`
	Confidence   string   `json:"confidence"`
	EvidenceRefs []string `json:"evidence_refs,omitempty"`
}

// AnalysisJSON is the structured analysis the backend's model produced.
type AnalysisJSON struct {
	Summary            string      `json:"summary"`
	LikelyRootCauses   []RootCause `json:"likely_root_causes,omitempty"`
	RecommendedActions []string    `json:"recommended_actions,omitempty"`
	KubectlCommands    []string    `json:"kubectl_commands,omitempty"`
	FollowUpQuestions  []string    `json:"follow_up_questions,omitempty"`
	RiskNotes          []string    `json:"risk_notes,omitempty"`
}

// TruncationReport records what was cut from the evidence bundle before it
// was sent to the model.
type TruncationReport struct {
	Truncated         bool     `json:"truncated"`
	SectionsTruncated []string `json:"sections_truncated,omitempty"`
	TotalCharsBefore  int      `json:"total_chars_before"`
	TotalCharsAfter   int      `json:"total_chars_after"`
}

// AnalyzeResponse is the full result of an analysis run. Evidence is kept
// as raw JSON so panels can render it losslessly.
type AnalyzeResponse struct {
	AnalysisJSON     AnalysisJSON     `json:"analysis_json"`
	AnalysisMarkdown string           `json:"analysis_markdown"`
	Evidence         json.RawMessage  `json:"evidence,omitempty"`
	TruncationReport TruncationReport `json:"truncation_report"`
	TokensUsed       int              `json:"tokens_used"`
	ResponseTimeMs   int              `json:"response_time_ms"`
	Error            string           `json:"error,omitempty"`
}

// AnalysisRecord is one saved analysis from history.
type AnalysisRecord struct {
	ID               string          `json:"id"`
	CreatedAt        string          `json:"created_at"`
	Context          string          `json:"context,omitempty"`
	Namespace        string          `json:"namespace,omitempty"`
	Kind             string          `json:"kind"`
	Name             string          `json:"name"`
	AnalysisJSON     AnalysisJSON    `json:"analysis_json"`
	AnalysisMarkdown string          `json:"analysis_markdown"`
	EvidenceSummary  json.RawMessage `json:"evidence_summary,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// ExplainResponse is the explainability slice of a saved analysis.
type ExplainResponse struct {
	AnalysisID string   `json:"analysis_id"`
	Heuristics []string `json:"heuristics"`
	Why        []string `json:"why"`
	Uncertain  []string `json:"uncertain"`
}

// DeleteResponse is the acknowledgement for delete endpoints.
type DeleteResponse struct {
	Message string `json:"message"`
}
