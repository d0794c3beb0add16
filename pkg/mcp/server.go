// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the dashboard's troubleshooting operations as MCP
// tools, so agent runtimes can run analyses and scans through the same
// backend the UI talks to.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the mcp-go server.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server.
func NewServer(name, version string) *Server {
	return &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
		),
	}
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
}

// ServeStdio serves the tools over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP serves the tools over streamable HTTP on addr.
func (s *Server) ServeHTTP(addr string) error {
	return server.NewStreamableHTTPServer(s.mcpServer).Start(addr)
}
