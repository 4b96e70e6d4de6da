// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.ResultWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteMatrix prints hospital matrices using the configured output format.
func (ow *OutWriter) WriteMatrix(results []schema.HospitalMatrix, cfg *contract.Config, duration time.Duration) error {
	return PrintMatrixResults(results, cfg, duration)
}

// WriteTiers prints per-measure tier listings using the configured output format.
func (ow *OutWriter) WriteTiers(results []schema.HospitalTiers, cfg *contract.Config) error {
	return PrintTierResults(results, cfg)
}

// WriteBenchmarks prints the active benchmark set using the configured output format.
func (ow *OutWriter) WriteBenchmarks(set schema.BenchmarkSet, cfg *contract.Config) error {
	return PrintBenchmarks(set, cfg)
}

// WriteMetricsFile writes a Prometheus textfile with per-hospital gauges.
func (ow *OutWriter) WriteMetricsFile(results []schema.HospitalMatrix, path string) error {
	return WriteMetricsTextfile(results, path)
}
