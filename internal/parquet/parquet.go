// Package parquet provides data structures and functions for moving qbmatrix
// data in and out of Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/qbmatrix/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single matrix run with metadata.
// This struct maps to the qbmatrix_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the globally unique identifier for this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// TotalHospitals is the number of hospitals built in this run
	TotalHospitals int32 `parquet:"total_hospitals,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Scenario is one deduplicated scenario of a hospital category.
// It maps to the qbmatrix_scenarios table and is also the row shape of
// parquet matrix output, where RunID is zero.
type Scenario struct {
	RunID         int64   `parquet:"run_id,snappy"`
	HospitalID    string  `parquet:"hospital_id,snappy"`
	Category      string  `parquet:"category,snappy"`
	ScenarioIndex int32   `parquet:"scenario_index,snappy"`
	TotalPoints   float64 `parquet:"total_points,snappy"`
	TotalChange   float64 `parquet:"total_change,snappy"`
	IsCurrent     bool    `parquet:"is_current,snappy"`

	// Detail is the JSON-encoded list of per-measure deltas
	Detail string `parquet:"detail,snappy"`
}

// MeasureRow is the Parquet input layout: one hospital measure per row.
// Thresholds uses the same separated form as the CSV column.
type MeasureRow struct {
	HospitalID     string  `parquet:"hospital_id"`
	HospitalName   string  `parquet:"hospital_name,optional"`
	HospitalSize   string  `parquet:"hospital_size,optional"`
	Measure        string  `parquet:"measure"`
	Value          float64 `parquet:"value,optional"`
	Numerator      float64 `parquet:"numerator,optional"`
	Denominator    float64 `parquet:"denominator,optional"`
	Expected       float64 `parquet:"expected,optional"`
	MarketExpected float64 `parquet:"market_expected,optional"`
	Thresholds     string  `parquet:"thresholds,optional"`
}

// writeFile writes rows of any struct type to a Parquet file.
// The schema is derived from the struct tags of T.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return writeTo(file, data)
}

// writeTo writes rows to w and closes the Parquet footer.
func writeTo[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteScenariosParquet writes a slice of Scenario structs to a Parquet file.
func WriteScenariosParquet(data []Scenario, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteScenarios writes scenarios to an open writer.
func WriteScenarios(w io.Writer, data []Scenario) error {
	return writeTo(w, data)
}

// WriteMeasureRowsParquet writes input rows to a Parquet file.
func WriteMeasureRowsParquet(rows []schema.MeasureRow, outputPath string) error {
	data := make([]MeasureRow, len(rows))
	for i, r := range rows {
		data[i] = MeasureRow{
			HospitalID:     r.HospitalID,
			HospitalName:   r.HospitalName,
			HospitalSize:   r.HospitalSize,
			Measure:        r.Measure,
			Value:          r.Value,
			Numerator:      r.Numerator,
			Denominator:    r.Denominator,
			Expected:       r.ExpectedNumerator,
			MarketExpected: r.MarketExpected,
			Thresholds:     schema.FormatThresholds(r.Thresholds),
		}
	}
	return writeFile(data, outputPath)
}

// ReadMeasureRowsParquet reads input rows from a Parquet file.
func ReadMeasureRowsParquet(inputPath string) ([]schema.MeasureRow, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[MeasureRow](file)
	defer func() { _ = reader.Close() }()

	data := make([]MeasureRow, reader.NumRows())
	n, err := reader.Read(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}

	rows := make([]schema.MeasureRow, 0, n)
	for i, r := range data[:n] {
		thresholds, err := schema.ParseThresholds(r.Thresholds)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, schema.MeasureRow{
			HospitalID:        r.HospitalID,
			HospitalName:      r.HospitalName,
			HospitalSize:      r.HospitalSize,
			Measure:           r.Measure,
			Value:             r.Value,
			Numerator:         r.Numerator,
			Denominator:       r.Denominator,
			ExpectedNumerator: r.Expected,
			MarketExpected:    r.MarketExpected,
			Thresholds:        thresholds,
		})
	}
	return rows, nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			RunUUID:        record.RunUUID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			TotalHospitals: int32(record.TotalHospitals),
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertScenarioRecords converts schema.ScenarioRecord to Scenario for Parquet export.
func ConvertScenarioRecords(records []schema.ScenarioRecord) []Scenario {
	result := make([]Scenario, len(records))
	for i, record := range records {
		result[i] = Scenario{
			RunID:         record.RunID,
			HospitalID:    record.HospitalID,
			Category:      record.Category,
			ScenarioIndex: int32(record.ScenarioIndex),
			TotalPoints:   record.TotalPoints,
			TotalChange:   record.TotalChange,
			IsCurrent:     record.IsCurrent,
			Detail:        record.Detail,
		}
	}
	return result
}
