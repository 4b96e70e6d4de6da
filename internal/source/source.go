// Package source loads long-format hospital measure rows from flat files.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/parquet"
	"github.com/huangsam/qbmatrix/schema"
)

// FileSource reads measure rows from a CSV, JSON or Parquet file.
type FileSource struct {
	Path   string
	Format schema.InputFormat
}

var _ contract.MeasureSource = &FileSource{} // Compile-time check

// NewFileSource creates a FileSource. An empty format is read as CSV.
func NewFileSource(path string, format schema.InputFormat) *FileSource {
	if format == "" {
		format = schema.CSVIn
	}
	return &FileSource{Path: path, Format: format}
}

// Load reads every row of the file.
func (s *FileSource) Load(ctx context.Context) ([]schema.MeasureRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch s.Format {
	case schema.ParquetIn:
		return parquet.ReadMeasureRowsParquet(s.Path)

	case schema.JSONIn:
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		var rows []schema.MeasureRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON input %s: %w", s.Path, err)
		}
		return rows, nil

	case schema.CSVIn:
		file, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer func() { _ = file.Close() }()
		rows, err := ReadCSV(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV input %s: %w", s.Path, err)
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("unsupported input format: %s", s.Format)
	}
}

// LoadHospitals loads rows from src, applies the crosswalk and groups them per hospital.
func LoadHospitals(ctx context.Context, src contract.MeasureSource, xref map[string]string, defaultSize schema.HospitalSize) ([]schema.HospitalInput, error) {
	rows, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return GroupHospitals(MergeXref(rows, xref), defaultSize)
}
