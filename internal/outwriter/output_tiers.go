package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrUnsupportedOutput is returned for output modes a command cannot produce.
var ErrUnsupportedOutput = errors.New("unsupported output format")

var tiersCSVHeader = []string{
	"hospital_id",
	"measure_id",
	"category",
	"eligible",
	"current_value",
	"points_earned",
	"rank",
	"points",
	"point_delta",
	"threshold",
	"value_delta",
	"count",
	"change",
}

// PrintTierResults outputs per-measure tier listings, dispatching based on the output format configured.
func PrintTierResults(results []schema.HospitalTiers, cfg *contract.Config) error {
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
			return writeTiersCSV(w, results, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("%w: %s for tiers", ErrUnsupportedOutput, cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTiersText(w, results, fmtFloat)
		}, "Wrote table")
	}
}

func writeTiersCSV(w io.Writer, results []schema.HospitalTiers, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, tiersCSVHeader, func(cw *csv.Writer) error {
		for _, h := range results {
			for _, mt := range h.Measures {
				m := mt.Measure
				for _, o := range mt.Outcomes {
					rec := []string{
						h.HospitalID,
						m.ID,
						string(m.Category),
						strconv.FormatBool(m.Eligible()),
						strconv.FormatFloat(m.CurrentValue, 'f', -1, 64),
						fmtFloat(m.PointsEarned),
						strconv.Itoa(o.Rank),
						fmtFloat(o.Points),
						fmtFloat(o.PointDelta),
						strconv.FormatFloat(o.Threshold, 'f', -1, 64),
						strconv.FormatFloat(o.ValueDelta, 'f', -1, 64),
						strconv.Itoa(o.Count),
						fmtFloat(o.Change),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func writeTiersText(w io.Writer, results []schema.HospitalTiers, fmtFloat func(float64) string) error {
	for _, h := range results {
		if _, err := fmt.Fprintf(w, "🏥 %s %s\n", h.HospitalID, h.HospitalName); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Measure", "Category", "Current", "Earned", "Rank", "Points", "Threshold", "Count", "Change"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		var data [][]string
		for _, mt := range h.Measures {
			m := mt.Measure
			if !m.Eligible() {
				data = append(data, []string{m.ID, string(m.Category), "-", "-", "-", "-", "-", "-", "-"})
				continue
			}
			for _, o := range mt.Outcomes {
				data = append(data, []string{
					m.ID,
					string(m.Category),
					strconv.FormatFloat(m.CurrentValue, 'g', 6, 64),
					fmtFloat(m.PointsEarned),
					strconv.Itoa(o.Rank),
					fmtFloat(o.Points),
					strconv.FormatFloat(o.Threshold, 'g', 6, 64),
					strconv.Itoa(o.Count),
					fmtFloat(o.Change),
				})
			}
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}
