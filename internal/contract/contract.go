// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/qbmatrix/schema"
)

// MeasureSource yields long-format measure rows from upstream tabular data.
// This allows the matrix builder to be tested without real input files.
type MeasureSource interface {
	// Load reads every row. Absent numeric cells are returned as zero.
	Load(ctx context.Context) ([]schema.MeasureRow, error)
}

// StoreManager defines the interface for managing the run history store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for tracking matrix runs and their scenarios.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordScenarios stores the deduplicated scenarios of one category for a hospital
	RecordScenarios(runID int64, hospitalID string, category schema.Category, scenarios []schema.ScenarioCombination) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalHospitals int) error

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllScenarios returns every recorded scenario ordered by run, hospital, category and index
	GetAllScenarios() ([]schema.ScenarioRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// ResultWriter renders matrix results in the configured output format.
type ResultWriter interface {
	WriteMatrix(results []schema.HospitalMatrix, cfg *Config, duration time.Duration) error
	WriteTiers(results []schema.HospitalTiers, cfg *Config) error
	WriteBenchmarks(set schema.BenchmarkSet, cfg *Config) error
	WriteMetricsFile(results []schema.HospitalMatrix, path string) error
}
