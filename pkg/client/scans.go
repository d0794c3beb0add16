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

// Scan runs a namespace or cluster scan. Not retried: scans are heavy and
// each run is persisted.
func (c *Client) Scan(ctx context.Context, req api.ScanRequest) (*api.ScanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.ScanResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scans lists past scan runs, newest first.
func (c *Client) Scans(ctx context.Context, limit int) ([]api.ScanRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp []api.ScanRecord
	if err := c.getJSON(ctx, withQuery("/api/scans", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ScanDetail fetches one scan with its findings.
func (c *Client) ScanDetail(ctx context.Context, scanID string) (*api.ScanDetail, error) {
	if strings.TrimSpace(scanID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "scan id is required", nil)
	}
	var resp api.ScanDetail
	if err := c.getJSON(ctx, "/api/scans/"+url.PathEscape(scanID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
