// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"strings"
)

// ScanScope selects how much of the cluster a scan covers.
type ScanScope string

const (
	ScopeNamespace ScanScope = "namespace"
	ScopeCluster   ScanScope = "cluster"
)

// Valid reports whether the scope is one the backend accepts.
func (s ScanScope) Valid() bool {
	return s == ScopeNamespace || s == ScopeCluster
}

// Severity grades a finding or incident.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one the backend accepts.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ScanRequest asks the backend to scan a namespace or the whole cluster.
type ScanRequest struct {
	Context     string    `json:"context,omitempty"`
	Scope       ScanScope `json:"scope"`
	Namespace   string    `json:"namespace,omitempty"`
	IncludeLogs bool      `json:"include_logs"`
}

// Validate mirrors the backend's request checks.
func (r ScanRequest) Validate() error {
	if !r.Scope.Valid() {
		return fmt.Errorf("scope must be 'namespace' or 'cluster'")
	}
	if r.Scope == ScopeNamespace && strings.TrimSpace(r.Namespace) == "" {
		return fmt.Errorf("namespace required when scope is 'namespace'")
	}
	return nil
}

// ResourceRef points a finding at an affected object.
type ResourceRef struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

// Finding is one issue a scan surfaced.
type Finding struct {
	ID                string        `json:"id"`
	Severity          Severity      `json:"severity"`
	Category          string        `json:"category"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	AffectedRefs      []ResourceRef `json:"affected_refs,omitempty"`
	EvidenceRefs      []string      `json:"evidence_refs,omitempty"`
	SuggestedCommands []string      `json:"suggested_commands,omitempty"`
	EvidenceSnippet   string        `json:"evidence_snippet,omitempty"`
	OccurredAt        string        `json:"occurred_at,omitempty"`
}

// ScanResponse is the result of a scan run. Counts is findings per severity.
type ScanResponse struct {
	ID              string         `json:"id"`
	CreatedAt       string         `json:"created_at"`
	SummaryMarkdown string         `json:"summary_markdown"`
	Error           string         `json:"error,omitempty"`
	Findings        []Finding      `json:"findings"`
	Counts          map[string]int `json:"counts"`
	DurationMs      int            `json:"duration_ms"`
}

// ScanRecord is one scan in the list view. FindingsCount is denormalized so
// the list does not need to load findings.
type ScanRecord struct {
	ID              string `json:"id"`
	CreatedAt       string `json:"created_at"`
	Context         string `json:"context,omitempty"`
	Scope           string `json:"scope"`
	Namespace       string `json:"namespace,omitempty"`
	Error           string `json:"error,omitempty"`
	FindingsCount   int    `json:"findings_count"`
	SummaryMarkdown string `json:"summary_markdown,omitempty"`
}

// ScanDetail is a scan with its findings loaded.
type ScanDetail struct {
	ScanRecord
	Findings []Finding `json:"findings"`
}
