package cmd

import (
	"github.com/huangsam/qbmatrix/core"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/spf13/cobra"
)

// matrixCmd builds the scoring-sensitivity matrix for each hospital.
var matrixCmd = &cobra.Command{
	Use:   "matrix <input-file>",
	Short: "Build the scoring-sensitivity matrix for each hospital.",
	Long: `Score every measure for each hospital and show what it takes to reach every tier.

For each category (CQM, Quality Bundle, Episodes) the matrix lists one
scenario per reachable points total: the cheapest combination of measure
changes that earns it, expressed as whole events ("3 fewer MA Readmissions").
The categories are then crossed into a grid of overall scores with their
payout band. The hospital's current position is highlighted.

Input is long-format: one row per hospital and measure with columns
hospital_id, hospital_name, hospital_size, measure, value, numerator,
denominator, expected, market_expected and thresholds.

Examples:
  # Build matrices for every hospital in the file
  qbmatrix matrix measures.csv

  # Build one hospital and show only the top 10 scenarios per category
  qbmatrix matrix measures.csv --hospital 330101 --limit 10

  # Export every scenario for BI tools
  qbmatrix matrix measures.parquet --output parquet --output-file scenarios.parquet

  # Record the run to SQLite and publish gauges for node_exporter
  qbmatrix matrix measures.csv --history-backend sqlite --metrics-file qb.prom`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMatrix(rootCtx, cfg, storeManager, resultWriter); err != nil {
			contract.LogFatal("Cannot build matrix", err)
		}
	},
}
