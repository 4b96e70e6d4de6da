// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the qbmatrix MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"qbmatrix Scoring Matrix Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: build_scoring_matrix ---
	s.AddTool(mcp.NewTool("build_scoring_matrix",
		mcp.WithDescription("Build the quality bonus scoring-sensitivity matrix for hospitals in a measure file: the cheapest event changes for every reachable points total and the overall score grid."),
		mcp.WithString("input_path", mcp.Description("Path to the long-format measure file."), mcp.Required()),
		mcp.WithString("input_format", mcp.Description("Input format. Defaults to the file extension."), mcp.Enum("csv", "json", "parquet")),
		mcp.WithString("hospital", mcp.Description("Comma-separated hospital IDs. Defaults to every hospital in the file.")),
		mcp.WithNumber("limit", mcp.Description("Keep only the highest scoring N scenarios per category.")),
	), h.handleBuildScoringMatrix)

	// --- 2. Tool: list_tiers ---
	s.AddTool(mcp.NewTool("list_tiers",
		mcp.WithDescription("List every scoring tier of every measure with the points it pays and the event change needed to reach it."),
		mcp.WithString("input_path", mcp.Description("Path to the long-format measure file."), mcp.Required()),
		mcp.WithString("input_format", mcp.Description("Input format. Defaults to the file extension."), mcp.Enum("csv", "json", "parquet")),
		mcp.WithString("hospital", mcp.Description("Comma-separated hospital IDs. Defaults to every hospital in the file.")),
	), h.handleListTiers)

	// --- 3. Tool: list_benchmarks ---
	s.AddTool(mcp.NewTool("list_benchmarks",
		mcp.WithDescription("Show the measure tiers and overall payout cut points in effect."),
	), h.handleListBenchmarks)

	return s
}

// StartMCPServer starts the qbmatrix MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
