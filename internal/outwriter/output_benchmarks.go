package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var benchmarksCSVHeader = []string{
	"id",
	"title",
	"category",
	"direction",
	"points_available",
	"has_denominator",
	"min_denominator",
	"risk_adjusted",
	"row_thresholds",
	"tier",
	"points",
	"threshold",
}

// PrintBenchmarks outputs the benchmark set, dispatching based on the output format configured.
// YAML output can be pasted under the benchmarks key of the config file.
func PrintBenchmarks(set schema.BenchmarkSet, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, set)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, set)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBenchmarksCSV(w, set)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("%w: %s for benchmarks", ErrUnsupportedOutput, cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBenchmarksText(w, set, fmtFloat)
		}, "Wrote table")
	}
}

func writeBenchmarksCSV(w io.Writer, set schema.BenchmarkSet) error {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return writeCSVWithHeader(w, benchmarksCSVHeader, func(cw *csv.Writer) error {
		for _, b := range set.Measures {
			prefix := []string{
				b.ID,
				b.Title,
				string(b.Category),
				string(b.Direction),
				format(b.MaxPoints()),
				strconv.FormatBool(b.HasDenominator),
				format(b.MinDenominator),
				strconv.FormatBool(b.RiskAdjusted),
				strconv.FormatBool(b.RowThresholds),
			}
			if len(b.Tiers) == 0 {
				if err := cw.Write(append(prefix, "", "", "")); err != nil {
					return err
				}
				continue
			}
			for i, t := range b.Tiers {
				threshold := format(t.Threshold)
				if b.RowThresholds {
					threshold = ""
				}
				if err := cw.Write(append(slices.Clone(prefix), strconv.Itoa(i+1), format(t.Points), threshold)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// formatTiers renders tiers as "7@0.059, 5@0.0683".
func formatTiers(b schema.MeasureBenchmark) string {
	if len(b.Tiers) == 0 {
		return "profiled"
	}
	parts := make([]string, len(b.Tiers))
	for i, t := range b.Tiers {
		if b.RowThresholds {
			parts[i] = strconv.FormatFloat(t.Points, 'g', -1, 64) + "@row"
			continue
		}
		parts[i] = strconv.FormatFloat(t.Points, 'g', -1, 64) + "@" + strconv.FormatFloat(t.Threshold, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func writeBenchmarksText(w io.Writer, set schema.BenchmarkSet, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "📋 Benchmarks %s (%d measures)\n", set.Version, len(set.Measures)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Category", "Direction", "Available", "Min Volume", "Tiers"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, b := range set.Measures {
		data = append(data, []string{
			b.ID,
			string(b.Category),
			string(b.Direction),
			fmtFloat(b.MaxPoints()),
			strconv.FormatFloat(b.MinDenominator, 'g', -1, 64),
			formatTiers(b),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	overall := tablewriter.NewWriter(w)
	overall.Header([]string{"Size", "Max", "Mid", "Min"})
	overall.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data = nil
	for _, size := range slices.Sorted(maps.Keys(set.Overall)) {
		o := set.Overall[size]
		data = append(data, []string{
			string(size),
			contract.MaxPayoutColor.Sprint(fmtFloat(o.Max)),
			contract.MidPayoutColor.Sprint(fmtFloat(o.Mid)),
			contract.MinPayoutColor.Sprint(fmtFloat(o.Min)),
		})
	}
	if err := overall.Bulk(data); err != nil {
		return err
	}
	return overall.Render()
}
