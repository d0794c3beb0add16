// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

// CreateIncident opens a new incident and returns its id.
func (c *Client) CreateIncident(ctx context.Context, req api.CreateIncidentRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.CreatedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/incidents", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateIncident patches incident fields and returns the updated detail.
func (c *Client) UpdateIncident(ctx context.Context, incidentID string, req api.UpdateIncidentRequest) (*api.IncidentDetail, error) {
	if strings.TrimSpace(incidentID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.IncidentDetail
	if err := c.doJSON(ctx, http.MethodPatch, "/api/incidents/"+url.PathEscape(incidentID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IncidentFromScan opens an incident with a scan as its first item.
func (c *Client) IncidentFromScan(ctx context.Context, req api.CreateIncidentFromScanRequest) (*api.IncidentDetail, error) {
	if strings.TrimSpace(req.ScanID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "scan id is required", nil)
	}
	var resp api.IncidentDetail
	if err := c.doJSON(ctx, http.MethodPost, "/api/incidents/from-scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IncidentFromAnalysis opens an incident with an analysis as its first item.
func (c *Client) IncidentFromAnalysis(ctx context.Context, req api.CreateIncidentFromAnalysisRequest) (*api.IncidentDetail, error) {
	if strings.TrimSpace(req.AnalysisID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "analysis id is required", nil)
	}
	var resp api.IncidentDetail
	if err := c.doJSON(ctx, http.MethodPost, "/api/incidents/from-analysis", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddIncidentItem attaches an analysis or scan to an incident.
func (c *Client) AddIncidentItem(ctx context.Context, incidentID string, req api.AddIncidentItemRequest) (string, error) {
	if strings.TrimSpace(incidentID) == "" {
		return "", uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	if req.Type != "analysis" && req.Type != "scan" {
		return "", uierr.New(uierr.CodeInvalidInput, "item type must be 'analysis' or 'scan'", nil)
	}
	var resp api.CreatedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/incidents/"+url.PathEscape(incidentID)+"/add", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// AddIncidentNote adds a free-text note to an incident.
func (c *Client) AddIncidentNote(ctx context.Context, incidentID, content string) (string, error) {
	if strings.TrimSpace(incidentID) == "" {
		return "", uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	if strings.TrimSpace(content) == "" {
		return "", uierr.New(uierr.CodeInvalidInput, "content required", nil)
	}
	req := api.AddIncidentNoteRequest{Content: strings.TrimSpace(content)}
	var resp api.CreatedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/incidents/"+url.PathEscape(incidentID)+"/notes", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Incidents lists incidents, newest first.
func (c *Client) Incidents(ctx context.Context, limit int) ([]api.IncidentSummary, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp []api.IncidentSummary
	if err := c.getJSON(ctx, withQuery("/api/incidents", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Incident fetches one incident with its timeline.
func (c *Client) Incident(ctx context.Context, incidentID string) (*api.IncidentDetail, error) {
	if strings.TrimSpace(incidentID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	var resp api.IncidentDetail
	if err := c.getJSON(ctx, "/api/incidents/"+url.PathEscape(incidentID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportIncident renders an incident as markdown or JSON. Returns the body
// and its media type verbatim.
func (c *Client) ExportIncident(ctx context.Context, incidentID, format string) ([]byte, string, error) {
	if strings.TrimSpace(incidentID) == "" {
		return nil, "", uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	if format != "markdown" && format != "json" {
		return nil, "", uierr.New(uierr.CodeInvalidInput, "format must be 'markdown' or 'json'", nil)
	}
	req := api.ExportIncidentRequest{Format: format}
	return c.doRaw(ctx, http.MethodPost, "/api/incidents/"+url.PathEscape(incidentID)+"/export", req)
}

// DeleteIncident removes an incident and its timeline.
func (c *Client) DeleteIncident(ctx context.Context, incidentID string) error {
	if strings.TrimSpace(incidentID) == "" {
		return uierr.New(uierr.CodeInvalidInput, "incident id is required", nil)
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/incidents/"+url.PathEscape(incidentID), nil, nil)
}
