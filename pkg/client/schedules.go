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

// CreateSchedule registers a recurring scan and returns its id.
func (c *Client) CreateSchedule(ctx context.Context, req api.CreateScheduleRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.CreatedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/schedules", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Schedules lists registered scan schedules.
func (c *Client) Schedules(ctx context.Context, limit int) ([]api.ScheduleRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp []api.ScheduleRecord
	if err := c.getJSON(ctx, withQuery("/api/schedules", query), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Schedule fetches one schedule by id.
func (c *Client) Schedule(ctx context.Context, scheduleID string) (*api.ScheduleRecord, error) {
	if strings.TrimSpace(scheduleID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "schedule id is required", nil)
	}
	var resp api.ScheduleRecord
	if err := c.getJSON(ctx, "/api/schedules/"+url.PathEscape(scheduleID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSchedule replaces schedule fields and returns the updated record.
func (c *Client) UpdateSchedule(ctx context.Context, scheduleID string, req api.UpdateScheduleRequest) (*api.ScheduleRecord, error) {
	if strings.TrimSpace(scheduleID) == "" {
		return nil, uierr.New(uierr.CodeInvalidInput, "schedule id is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, uierr.New(uierr.CodeInvalidInput, err.Error(), nil)
	}
	var resp api.ScheduleRecord
	if err := c.doJSON(ctx, http.MethodPut, "/api/schedules/"+url.PathEscape(scheduleID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSchedule removes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if strings.TrimSpace(scheduleID) == "" {
		return uierr.New(uierr.CodeInvalidInput, "schedule id is required", nil)
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/schedules/"+url.PathEscape(scheduleID), nil, nil)
}
