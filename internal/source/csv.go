package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/qbmatrix/schema"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Column names of the long-format CSV layout.
const (
	colHospitalID     = "hospital_id"
	colHospitalName   = "hospital_name"
	colHospitalSize   = "hospital_size"
	colMeasure        = "measure"
	colValue          = "value"
	colNumerator      = "numerator"
	colDenominator    = "denominator"
	colExpected       = "expected"
	colMarketExpected = "market_expected"
	colThresholds     = "thresholds"
)

// Columns lists the CSV header in its canonical order.
var Columns = []string{
	colHospitalID, colHospitalName, colHospitalSize, colMeasure, colValue,
	colNumerator, colDenominator, colExpected, colMarketExpected, colThresholds,
}

// missingValues are cell spellings read as an absent number.
var missingValues = map[string]struct{}{"": {}, ".": {}, "na": {}, "n/a": {}, "null": {}}

// ReadCSV parses long-format rows. Columns are matched by header name in any
// order; only hospital_id and measure are required. Absent numbers read as 0.
func ReadCSV(ctx context.Context, r io.Reader) ([]schema.MeasureRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{colHospitalID, colMeasure} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var rows []schema.MeasureRow
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row.HospitalID == "" && row.Measure == "" {
			continue // blank line
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(record []string, index map[string]int) (schema.MeasureRow, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := schema.MeasureRow{
		HospitalID:   cell(colHospitalID),
		HospitalName: cell(colHospitalName),
		HospitalSize: cell(colHospitalSize),
		Measure:      cell(colMeasure),
	}

	numbers := []struct {
		col string
		dst *float64
	}{
		{colValue, &row.Value},
		{colNumerator, &row.Numerator},
		{colDenominator, &row.Denominator},
		{colExpected, &row.ExpectedNumerator},
		{colMarketExpected, &row.MarketExpected},
	}
	for _, n := range numbers {
		v, err := parseNumber(cell(n.col))
		if err != nil {
			return row, fmt.Errorf("column %s: %w", n.col, err)
		}
		*n.dst = v
	}

	thresholds, err := schema.ParseThresholds(cell(colThresholds))
	if err != nil {
		return row, fmt.Errorf("column %s: %w", colThresholds, err)
	}
	row.Thresholds = thresholds
	return row, nil
}

// parseNumber reads a numeric cell, tolerating thousands separators.
func parseNumber(s string) (float64, error) {
	if _, ok := missingValues[strings.ToLower(s)]; ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return schema.Finite(v), nil
}

// WriteCSV writes rows in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, rows []schema.MeasureRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range rows {
		record := []string{
			r.HospitalID, r.HospitalName, r.HospitalSize, r.Measure, format(r.Value),
			format(r.Numerator), format(r.Denominator), format(r.ExpectedNumerator), format(r.MarketExpected),
			schema.FormatThresholds(r.Thresholds),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
