package cmd

import (
	"github.com/huangsam/qbmatrix/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the qbmatrix MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents build matrices, list tiers and read benchmarks via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags and config still apply; tools supply the input file per call.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
