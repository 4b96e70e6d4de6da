package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/qbmatrix/core/algo"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/parquet"
	"github.com/huangsam/qbmatrix/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// matrixCSVHeader has one row per measure delta of every scenario.
var matrixCSVHeader = []string{
	"hospital_id",
	"category",
	"scenario_index",
	"total_points",
	"total_change",
	"current",
	"measure_id",
	"rank",
	"points",
	"count",
	"value_delta",
	"target_numerator",
	"denominator",
	"comment",
}

// PrintMatrixResults outputs hospital matrices, dispatching based on the output format configured.
func PrintMatrixResults(results []schema.HospitalMatrix, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, results)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, results)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixCSV(w, results, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		rows, err := ScenarioRows(results)
		if err != nil {
			return err
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteScenarios(w, rows)
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixText(w, results, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// ScenarioRows flattens every deduplicated scenario into Parquet rows.
// Detail holds the JSON-encoded measure deltas.
func ScenarioRows(results []schema.HospitalMatrix) ([]parquet.Scenario, error) {
	var rows []parquet.Scenario
	for _, h := range results {
		for _, c := range h.Categories {
			for i, s := range c.Scenarios {
				detail, err := json.Marshal(s.Deltas)
				if err != nil {
					return nil, fmt.Errorf("failed to encode scenario detail: %w", err)
				}
				rows = append(rows, parquet.Scenario{
					HospitalID:    h.HospitalID,
					Category:      string(c.Category),
					ScenarioIndex: int32(i),
					TotalPoints:   s.TotalPoints,
					TotalChange:   s.TotalChange,
					IsCurrent:     s.Current,
					Detail:        string(detail),
				})
			}
		}
	}
	return rows, nil
}

func writeMatrixCSV(w io.Writer, results []schema.HospitalMatrix, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, matrixCSVHeader, func(cw *csv.Writer) error {
		for _, h := range results {
			for _, c := range h.Categories {
				for i, s := range c.Scenarios {
					prefix := []string{
						h.HospitalID,
						string(c.Category),
						strconv.Itoa(i),
						fmtFloat(s.TotalPoints),
						fmtFloat(s.TotalChange),
						strconv.FormatBool(s.Current),
					}
					if len(s.Deltas) == 0 {
						if err := cw.Write(append(prefix, make([]string, len(matrixCSVHeader)-len(prefix))...)); err != nil {
							return err
						}
						continue
					}
					for _, d := range s.Deltas {
						rec := append(slices.Clone(prefix),
							d.MeasureID,
							strconv.Itoa(d.Rank),
							fmtFloat(d.Points),
							strconv.Itoa(d.Count),
							strconv.FormatFloat(d.ValueDelta, 'f', -1, 64),
							fmtFloat(d.TargetNumerator),
							fmtFloat(d.Denominator),
							d.Comment,
						)
						if err := cw.Write(rec); err != nil {
							return err
						}
					}
				}
			}
		}
		return nil
	})
}

// writeMatrixText renders a header, one scenario table per category and the
// scoring grid for each hospital.
func writeMatrixText(w io.Writer, results []schema.HospitalMatrix, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	summaryWidth := getMaxSummaryWidth(cfg)
	for _, h := range results {
		if _, err := fmt.Fprintf(w, "🏥 %s %s (%s): score %s, %s (%s of %s points)\n",
			h.HospitalID, h.HospitalName, h.HospitalSize, fmtFloat(h.CurrentScore),
			contract.GetColorLabel(h.CurrentPayout), fmtFloat(h.TotalPointsEarned), fmtFloat(h.TotalPointsAvailable)); err != nil {
			return err
		}
		for _, c := range h.Categories {
			if err := writeCategoryTable(w, c, cfg.ResultLimit, fmtFloat, summaryWidth); err != nil {
				return err
			}
		}
		if err := writeGridTable(w, h.Grid, fmtFloat); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Built %d hospitals in %v with %d workers. History backend: %s\n",
		len(results), duration, cfg.Workers, cfg.HistoryBackend)
	return err
}

// writeCategoryTable lists the highest scoring limit scenarios of a category,
// numbered by their position in the full list.
func writeCategoryTable(w io.Writer, c schema.CategoryResult, limit int, fmtFloat func(float64) string, summaryWidth int) error {
	if !c.Eligible {
		_, err := fmt.Fprintf(w, "%s: not scored\n", strings.ToUpper(string(c.Category)))
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %s of %s points, %d combinations, %d scenarios\n",
		strings.ToUpper(string(c.Category)), fmtFloat(c.PointsEarned), fmtFloat(c.PointsAvailable),
		c.RawCombinations, len(c.Scenarios)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Points", "Change", "Current", "Scenario"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	shown := algo.LimitScenarios(c.Scenarios, limit)
	offset := len(c.Scenarios) - len(shown)
	var data [][]string
	for i, s := range shown {
		current := ""
		if s.Current {
			current = "*"
		}
		data = append(data, []string{
			strconv.Itoa(offset + i + 1),
			fmtFloat(s.TotalPoints),
			fmtFloat(s.TotalChange),
			current,
			contract.TruncateText(s.Summary, summaryWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeGridTable renders episode and bundle pairings as rows and CQM totals as columns.
// Cells are colored by payout tier and today's cell is underlined.
func writeGridTable(w io.Writer, g schema.ScoreGrid, fmtFloat func(float64) string) error {
	if len(g.Rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Scoring grid (max %s, mid %s, min %s of %s points)\n",
		fmtFloat(g.Benchmark.Max), fmtFloat(g.Benchmark.Mid), fmtFloat(g.Benchmark.Min), fmtFloat(g.TotalPointsAvailable)); err != nil {
		return err
	}

	headers := []string{"Episode", "Bundle"}
	for _, col := range g.Columns {
		headers = append(headers, "CQM "+fmtFloat(col))
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range g.Rows {
		row := []string{fmtFloat(r.EpisodePoints), fmtFloat(r.BundlePoints)}
		for _, c := range r.Cells {
			cell := contract.PayoutColor(c.Payout).Sprint(fmtFloat(c.Score))
			if c.Current {
				cell = contract.CurrentColor.Sprint(cell)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
