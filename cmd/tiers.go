package cmd

import (
	"github.com/huangsam/qbmatrix/core"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/spf13/cobra"
)

// tiersCmd lists per-measure tier outcomes without building combinations.
var tiersCmd = &cobra.Command{
	Use:   "tiers <input-file>",
	Short: "List the tier outcomes of every measure for each hospital.",
	Long: `Show, for each measure, every scoring tier with the points it pays and the
change in events needed to reach it from today's value.

This is the input to the matrix, one measure at a time. Use it to check a
single measure's thresholds or why a measure is not scored.

Examples:
  # Tiers for one hospital
  qbmatrix tiers measures.csv --hospital 330101

  # As CSV
  qbmatrix tiers measures.csv --output csv --output-file tiers.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTiers(rootCtx, cfg, storeManager, resultWriter); err != nil {
			contract.LogFatal("Cannot list tiers", err)
		}
	},
}
