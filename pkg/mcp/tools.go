// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/resilience"
)

// toolTimeout bounds each backend call. MCP transports carry no deadline of
// their own, stdio in particular would otherwise hang a tool call forever.
const toolTimeout = 60 * time.Second

func callBackend(ctx context.Context, fn func(context.Context) error) error {
	return resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: toolTimeout}, fn)
}

// Backend is the slice of the REST client the tools call.
type Backend interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
	Analyze(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error)
	Scan(ctx context.Context, req api.ScanRequest) (*api.ScanResponse, error)
	History(ctx context.Context, limit int, kubeContext string) ([]api.AnalysisRecord, error)
	Analysis(ctx context.Context, analysisID string) (*api.AnalysisRecord, error)
	Compare(ctx context.Context, analysisIDA, analysisIDB string) (*api.CompareResponse, error)
}

// RegisterTools registers the troubleshooting tools against the backend.
func RegisterTools(s *Server, backend Backend) {
	s.AddTool(analyzeTool(), analyzeHandler(backend))
	s.AddTool(scanTool(), scanHandler(backend))
	s.AddTool(listHistoryTool(), listHistoryHandler(backend))
	s.AddTool(getAnalysisTool(), getAnalysisHandler(backend))
	s.AddTool(compareTool(), compareHandler(backend))
	s.AddTool(healthTool(), healthHandler(backend))
}

func analyzeTool() mcp.Tool {
	return mcp.NewTool("kube_analyze",
		mcp.WithDescription("Analyze a Kubernetes resource (Pod, Deployment, StatefulSet or Node) and return the structured diagnosis with evidence."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Resource kind: Pod, Deployment, StatefulSet or Node")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Resource name")),
		mcp.WithString("namespace", mcp.Description("Namespace, required for everything but Node")),
		mcp.WithString("context", mcp.Description("Kubeconfig context, empty for the backend default")),
		mcp.WithBoolean("include_previous_logs", mcp.Description("Include logs from the previous container run")),
	)
}

func analyzeHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, err := request.RequireString("kind")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var resp *api.AnalyzeResponse
		err = callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = backend.Analyze(ctx, api.AnalyzeRequest{
				Context:             request.GetString("context", ""),
				Namespace:           request.GetString("namespace", ""),
				Kind:                api.TargetKind(kind),
				Name:                name,
				IncludePreviousLogs: request.GetBool("include_previous_logs", false),
			})
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(resp)
	}
}

func scanTool() mcp.Tool {
	return mcp.NewTool("kube_scan",
		mcp.WithDescription("Scan a namespace or the whole cluster for problems and return the findings."),
		mcp.WithString("scope", mcp.Required(), mcp.Description("Scan scope: namespace or cluster")),
		mcp.WithString("namespace", mcp.Description("Namespace, required when scope is namespace")),
		mcp.WithString("context", mcp.Description("Kubeconfig context, empty for the backend default")),
		mcp.WithBoolean("include_logs", mcp.Description("Include container logs in the scan evidence")),
	)
}

func scanHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		scope, err := request.RequireString("scope")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var resp *api.ScanResponse
		err = callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = backend.Scan(ctx, api.ScanRequest{
				Context:     request.GetString("context", ""),
				Scope:       api.ScanScope(scope),
				Namespace:   request.GetString("namespace", ""),
				IncludeLogs: request.GetBool("include_logs", false),
			})
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(resp)
	}
}

func listHistoryTool() mcp.Tool {
	return mcp.NewTool("list_history",
		mcp.WithDescription("List saved analyses, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records, default 50")),
		mcp.WithString("context", mcp.Description("Filter by kubeconfig context")),
	)
}

func listHistoryHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var records []api.AnalysisRecord
		err := callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			records, callErr = backend.History(ctx, request.GetInt("limit", 50), request.GetString("context", ""))
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(records)
	}
}

func getAnalysisTool() mcp.Tool {
	return mcp.NewTool("get_analysis",
		mcp.WithDescription("Fetch one saved analysis by id, including its evidence summary."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis id")),
	)
}

func getAnalysisHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		analysisID, err := request.RequireString("analysis_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var record *api.AnalysisRecord
		err = callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			record, callErr = backend.Analysis(ctx, analysisID)
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(record)
	}
}

func compareTool() mcp.Tool {
	return mcp.NewTool("compare_analyses",
		mcp.WithDescription("Diff two saved analyses of the same resource and explain what changed."),
		mcp.WithString("analysis_id_a", mcp.Required(), mcp.Description("Earlier analysis id")),
		mcp.WithString("analysis_id_b", mcp.Required(), mcp.Description("Later analysis id")),
	)
}

func compareHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idA, err := request.RequireString("analysis_id_a")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		idB, err := request.RequireString("analysis_id_b")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var resp *api.CompareResponse
		err = callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = backend.Compare(ctx, idA, idB)
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(resp)
	}
}

func healthTool() mcp.Tool {
	return mcp.NewTool("cluster_health",
		mcp.WithDescription("Report backend readiness: cluster connectivity and LLM configuration."),
	)
}

func healthHandler(backend Backend) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp *api.HealthResponse
		err := callBackend(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = backend.Health(ctx)
			return callErr
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(resp)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
