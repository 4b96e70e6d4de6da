package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/qbmatrix/core"
	"github.com/huangsam/qbmatrix/core/algo"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// inputConfig clones the base config and applies the per-call input arguments.
func (h *toolHandler) inputConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	path, format, err := contract.ResolveInputFile(request.GetString("input_path", ""), request.GetString("input_format", ""))
	if err != nil {
		return nil, err
	}
	cfg.InputPath = path
	cfg.InputFormat = format
	if hospitals := request.GetString("hospital", ""); hospitals != "" {
		cfg.Hospitals = contract.ParseHospitalList(hospitals)
	}
	return cfg, nil
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleBuildScoringMatrix(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.inputConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
	}
	src, err := core.NewSource(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
	}

	results, err := core.GetMatrixResults(core.WithSuppressHeader(ctx), cfg, src, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("matrix build failed: %v", err)), nil
	}

	if l := request.GetInt("limit", 0); l > 0 {
		for i := range results {
			for j := range results[i].Categories {
				c := &results[i].Categories[j]
				c.Scenarios = algo.LimitScenarios(c.Scenarios, l)
			}
		}
	}
	return jsonResult(results)
}

func (h *toolHandler) handleListTiers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.inputConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
	}
	src, err := core.NewSource(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
	}

	results, err := core.GetTierResults(core.WithSuppressHeader(ctx), cfg, src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tier listing failed: %v", err)), nil
	}
	return jsonResult(results)
}

func (h *toolHandler) handleListBenchmarks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.baseCfg.Benchmarks)
}
