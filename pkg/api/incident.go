// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"strings"
)

// IncidentStatus tracks an incident's lifecycle.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "open"
	StatusMitigating IncidentStatus = "mitigating"
	StatusResolved   IncidentStatus = "resolved"
)

// Valid reports whether the status is one the backend accepts.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusMitigating, StatusResolved:
		return true
	}
	return false
}

// CreateIncidentRequest opens a new incident.
type CreateIncidentRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate mirrors the backend's request checks.
func (r CreateIncidentRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.Severity != "" && !r.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", r.Severity)
	}
	return nil
}

// UpdateIncidentRequest patches incident fields. Nil pointers leave the
// field untouched.
type UpdateIncidentRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *IncidentStatus `json:"status,omitempty"`
	Severity    *Severity       `json:"severity,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// Validate mirrors the backend's enum checks.
func (r UpdateIncidentRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("invalid status: %s", *r.Status)
	}
	if r.Severity != nil && !r.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", *r.Severity)
	}
	return nil
}

// CreateIncidentFromScanRequest opens an incident seeded with a scan.
type CreateIncidentFromScanRequest struct {
	ScanID   string   `json:"scan_id"`
	Title    string   `json:"title,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// CreateIncidentFromAnalysisRequest opens an incident seeded with an analysis.
type CreateIncidentFromAnalysisRequest struct {
	AnalysisID string   `json:"analysis_id"`
	Title      string   `json:"title,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
}

// AddIncidentItemRequest attaches an analysis or scan to an incident.
type AddIncidentItemRequest struct {
	Type  string `json:"type"` // analysis | scan
	RefID string `json:"ref_id"`
}

// AddIncidentNoteRequest adds a free-text note to an incident.
type AddIncidentNoteRequest struct {
	Content string `json:"content"`
}

/// ExportIncidentRequest selects the export format: markdown or json.
type ExportIncidentRequest struct {
	Format string `json:"format"`
}

// IncidentSummary is one incident in the list view.
type IncidentSummary struct {
	ID          string         `json:"id"`
	CreatedAt   string         `json:"created_at"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Severity    Severity       `json:"severity,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      IncidentStatus `json:"status"`
}

// IncidentItem links an incident to an analysis or scan.
type IncidentItem struct {
	ID        string `json:"id"`
	ItemType  string `json:"item_type"` // analysis | scan
	RefID     string `json:"ref_id"`
	CreatedAt string `json:"created_at"`
}

// IncidentNote is one note on an incident.
type IncidentNote struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// TimelineEntry is one event in an incident's merged timeline. Type is
// incident_created, item or note; the other fields are populated per type.
type TimelineEntry struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	ItemType  string `json:"item_type,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// IncidentDetail is an incident with items, notes and the merged timeline.
type IncidentDetail struct {
	IncidentSummary
	Items    []IncidentItem  `json:"items"`
	Notes    []IncidentNote  `json:"notes"`
	Timeline []TimelineEntry `json:"timeline"`
}

// CreatedResponse carries the id of a newly created record.
type CreatedResponse struct {
	ID string `json:"id"`
}
