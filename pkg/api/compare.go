// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package api

// CompareRequest asks the backend to diff two saved analyses.
type CompareRequest struct {
	AnalysisIDA string `json:"analysis_id_a"`
	AnalysisIDB string `json:"analysis_id_b"`
}

// Change is one evidence-level difference between two analyses. Type names
// the diff family (pod_phase, condition, restart_count, event, resources,
// summary, kubectl_commands and friends).
type Change struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
	Impact string `json:"impact,omitempty"`
}

// CompareMeta identifies one side of a comparison.
type CompareMeta struct {
	ID              string   `json:"id"`
	CreatedAt       string   `json:"created_at"`
	Kind            string   `json:"kind"`
	Name            string   `json:"name"`
	Namespace       string   `json:"namespace,omitempty"`
	KubectlCommands []string `json:"kubectl_commands,omitempty"`
}

// CompareResponse is the diff between two analyses plus the backend's
// reasoning about what changed.
type CompareResponse struct {
	DiffSummary     string      `json:"diff_summary"`
	Changes         []Change    `json:"changes"`
	LikelyReasoning string      `json:"likely_reasoning"`
	AnalysisA       CompareMeta `json:"analysis_a"`
	AnalysisB       CompareMeta `json:"analysis_b"`
	Error           string      `json:"error,omitempty"`
}
