// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"strings"
)

// ValidateCron checks the 5-field cron expression format the backend's
// scheduler accepts (minute hour day-of-month month day-of-week).
func ValidateCron(cron string) error {
	if len(strings.Fields(cron)) != 5 {
		return fmt.Errorf("cron must have 5 parts (e.g. '0 * * * *' for hourly)")
	}
	return nil
}

// CreateScheduleRequest registers a recurring scan.
type CreateScheduleRequest struct {
	Context   string    `json:"context,omitempty"`
	Scope     ScanScope `json:"scope"`
	Namespace string    `json:"namespace,omitempty"`
	Cron      string    `json:"cron"`
	Enabled   bool      `json:"enabled"`
}

// Validate mirrors the backend's request checks.
func (r CreateScheduleRequest) Validate() error {
	if !r.Scope.Valid() {
		return fmt.Errorf("scope must be 'namespace' or 'cluster'")
	}
	if r.Scope == ScopeNamespace && strings.TrimSpace(r.Namespace) == "" {
		return fmt.Errorf("namespace required when scope is 'namespace'")
	}
	return ValidateCron(r.Cron)
}

// UpdateScheduleRequest patches schedule fields. Nil pointers leave the
// field untouched.
type UpdateScheduleRequest struct {
	Context   *string    `json:"context,omitempty"`
	Scope     *ScanScope `json:"scope,omitempty"`
	Namespace *string    `json:"namespace,omitempty"`
	Cron      *string    `json:"cron,omitempty"`
	Enabled   *bool      `json:"enabled,omitempty"`
}

// Validate mirrors the backend's request checks.
func (r UpdateScheduleRequest) Validate() error {
	if r.Scope != nil && !r.Scope.Valid() {
		return fmt.Errorf("scope must be 'namespace' or 'cluster'")
	}
	if r.Cron != nil {
		return ValidateCron(*r.Cron)
	}
	return nil
}

// ScheduleRecord is one registered scan schedule.
type ScheduleRecord struct {
	ID        string    `json:"id"`
	CreatedAt string    `json:"created_at"`
	Context   string    `json:"context,omitempty"`
	Scope     ScanScope `json:"scope"`
	Namespace string    `json:"namespace,omitempty"`
	Cron      string    `json:"cron"`
	Enabled   bool      `json:"enabled"`
	LastRunAt string    `json:"last_run_at,omitempty"`
}
