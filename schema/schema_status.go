package schema

import "time"

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int              `json:"total_runs"`
	LastRunID      int64            `json:"last_run_id"`
	LastRunUUID    string           `json:"last_run_uuid"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	TotalHospitals int              `json:"total_hospitals"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the qbmatrix_runs table.
type RunRecord struct {
	RunID          int64
	RunUUID        string
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int64
	TotalHospitals int
	ConfigParams   *string
}

// ScenarioRecord represents a row from the qbmatrix_scenarios table.
// One row is stored per deduplicated scenario per category per hospital.
type ScenarioRecord struct {
	RunID         int64
	HospitalID    string
	Category      string
	ScenarioIndex int
	TotalPoints   float64
	TotalChange   float64
	IsCurrent     bool
	Detail        string // JSON-encoded measure deltas
}
