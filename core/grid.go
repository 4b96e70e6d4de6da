package core

import (
	"github.com/huangsam/qbmatrix/schema"
)

// BuildGrid crosses the deduplicated episode and bundle scenarios (rows) with
// the CQM scenarios (columns). Each cell holds the overall score, which is the
// scenario points over total points available rounded to two places, and the
// payout tier that score falls into.
func BuildGrid(episodes, bundles, cqm schema.CategoryResult, total float64, bench schema.OverallBenchmark) schema.ScoreGrid {
	grid := schema.ScoreGrid{
		Benchmark:            bench,
		TotalPointsAvailable: total,
		Columns:              make([]float64, 0, len(cqm.Scenarios)),
		Rows:                 make([]schema.GridRow, 0, len(episodes.Scenarios)*len(bundles.Scenarios)),
	}
	for _, c := range cqm.Scenarios {
		grid.Columns = append(grid.Columns, c.TotalPoints)
	}
	for _, e := range episodes.Scenarios {
		for _, b := range bundles.Scenarios {
			row := schema.GridRow{
				EpisodePoints:  e.TotalPoints,
				EpisodeComment: e.Summary,
				BundlePoints:   b.TotalPoints,
				BundleComment:  b.Summary,
				Cells:          make([]schema.GridCell, 0, len(cqm.Scenarios)),
			}
			for _, c := range cqm.Scenarios {
				score := OverallScore(e.TotalPoints+b.TotalPoints+c.TotalPoints, total)
				row.Cells = append(row.Cells, schema.GridCell{
					CQMPoints: c.TotalPoints,
					Score:     score,
					Payout:    bench.Classify(score),
					Current:   e.Current && b.Current && c.Current,
				})
			}
			grid.Rows = append(grid.Rows, row)
		}
	}
	return grid
}

// OverallScore is points over available rounded to two places, or 0 when nothing is available.
func OverallScore(points, available float64) float64 {
	if available <= 0 {
		return 0
	}
	return schema.RoundTo(points/available, 2)
}

// CurrentCell returns the position of the grid cell matching today's points.
func CurrentCell(g schema.ScoreGrid) (row, col int, ok bool) {
	for i, r := range g.Rows {
		for j, c := range r.Cells {
			if c.Current {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}
