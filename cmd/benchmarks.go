package cmd

import (
	"github.com/huangsam/qbmatrix/core"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/spf13/cobra"
)

// benchmarksCmd displays the active benchmark set.
var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Display the measure tiers and payout cut points in effect",
	Long: `Show every configured measure with its tiers, points available and eligibility
floor, followed by the overall payout cut points for each hospital size.

Overrides from the benchmarks section of .qbmatrix.yaml are applied, so this
is the way to validate a custom benchmark file. No input file is read.

Examples:
  # Show built-in benchmarks
  qbmatrix benchmarks

  # Check overrides from a config file
  qbmatrix benchmarks --config .qbmatrix.yaml

  # Dump as YAML to start a config file
  qbmatrix benchmarks --output yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBenchmarks(rootCtx, cfg, storeManager, resultWriter); err != nil {
			contract.LogFatal("Cannot display benchmarks", err)
		}
	},
}
