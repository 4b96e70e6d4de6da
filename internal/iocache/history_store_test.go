package iocache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/qbmatrix/internal/parquet"
	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScenarios() []schema.ScenarioCombination {
	return []schema.ScenarioCombination{
		{TotalPoints: 0, TotalChange: 0, Deltas: []schema.MeasureDelta{{MeasureID: "hosp03", Rank: 1, Comment: "No Change"}}},
		{TotalPoints: 2.5, TotalChange: 4, Current: true, Deltas: []schema.MeasureDelta{{MeasureID: "hosp03", Rank: 2, Points: 2.5, Count: 4, Comment: "4 more patients"}}},
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	runID, err := store.BeginRun(time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.RecordScenarios(1, "H1", schema.CQMCategory, sampleScenarios()))
	assert.NoError(t, store.EndRun(1, time.Now(), 10))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Now().Add(-time.Second)
	runID, err := store.BeginRun(start, map[string]any{"workers": 2, "input": "/tmp/in.csv"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	require.NoError(t, store.RecordScenarios(runID, "H1", schema.CQMCategory, sampleScenarios()))
	require.NoError(t, store.RecordScenarios(runID, "H1", schema.BundleCategory, nil))
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), 1))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Len(t, run.RunUUID, 36)
	assert.WithinDuration(t, start, run.StartTime, time.Millisecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int64(1500), *run.RunDurationMs)
	assert.Equal(t, 1, run.TotalHospitals)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"workers":2,"input":"/tmp/in.csv"}`, *run.ConfigParams)

	scenarios, err := store.GetAllScenarios()
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "H1", scenarios[1].HospitalID)
	assert.Equal(t, string(schema.CQMCategory), scenarios[1].Category)
	assert.Equal(t, 1, scenarios[1].ScenarioIndex)
	assert.Equal(t, 2.5, scenarios[1].TotalPoints)
	assert.True(t, scenarios[1].IsCurrent)
	assert.False(t, scenarios[0].IsCurrent)

	var deltas []schema.MeasureDelta
	require.NoError(t, json.Unmarshal([]byte(scenarios[1].Detail), &deltas))
	assert.Equal(t, "4 more patients", deltas[0].Comment)
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)

	first := time.Now().Add(-time.Hour)
	for i, hospitals := range []int{3, 5} {
		runID, err := store.BeginRun(first.Add(time.Duration(i)*time.Minute), nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordScenarios(runID, "H1", schema.EpisodeCategory, sampleScenarios()))
		require.NoError(t, store.EndRun(runID, time.Now(), hospitals))
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, int64(2), status.LastRunID)
	assert.Equal(t, 8, status.TotalHospitals)
	assert.WithinDuration(t, first, status.OldestRunTime, time.Millisecond)
	assert.True(t, status.LastRunTime.After(status.OldestRunTime))
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(4), status.TableSizes[scenariosTable])

	var buf bytes.Buffer
	PrintHistoryStatus(&buf, status)
	assert.Contains(t, buf.String(), "Total Runs: 2")
	assert.Contains(t, buf.String(), "qbmatrix_scenarios: 4 rows")
}

func TestHistoryStore_EndRunUnknown(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(42, time.Now(), 1))
}

func TestNewHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestBuilderPlaceholders(t *testing.T) {
	pg, _, err := builderFor(schema.PostgreSQLBackend).Select("run_id").From(runsTable).Where("run_id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT run_id FROM qbmatrix_runs WHERE run_id = $1", pg)

	lite, _, err := builderFor(schema.SQLiteBackend).Select("run_id").From(runsTable).Where("run_id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT run_id FROM qbmatrix_runs WHERE run_id = ?", lite)
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Missing files are fine
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.DatabaseBackend("oracle"), "", ""))
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	msg, err := MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Contains(t, msg, "to version 2")

	msg, err = MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Contains(t, msg, "No migration needed")

	msg, err = MigrateHistory(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Contains(t, msg, "to version 1")

	msg, err = MigrateHistory(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "to version 0")

	_, err = MigrateHistory(schema.NoneBackend, "", -1)
	assert.Error(t, err)
}

func TestExecuteHistoryExport(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out := filepath.Join(t.TempDir(), "history")
	assert.ErrorContains(t, ExecuteHistoryExport(store, out), "no run history")
	assert.ErrorContains(t, ExecuteHistoryExport(store, ""), "--output-file")

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordScenarios(runID, "H1", schema.CQMCategory, sampleScenarios()))
	require.NoError(t, store.EndRun(runID, time.Now(), 1))

	require.NoError(t, ExecuteHistoryExport(store, out))
	for _, suffix := range []string{".runs.parquet", ".scenarios.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExecuteHistoryExport_StoreErrors(t *testing.T) {
	store := &MockHistoryStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", TotalRuns: 1}, nil)
	store.On("GetAllRuns").Return([]schema.RunRecord(nil), assert.AnError)

	err := ExecuteHistoryExport(store, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "GetAllScenarios")
}

func TestHistoryStoreManager(t *testing.T) {
	assert.Nil(t, (&HistoryStoreManager{}).GetHistoryStore())

	store := &MockHistoryStore{}
	mgr := &HistoryStoreManager{history: store}
	assert.Same(t, store, mgr.GetHistoryStore())

	mockMgr := &MockStoreManager{}
	mockMgr.On("GetHistoryStore").Return(store)
	assert.Same(t, store, mockMgr.GetHistoryStore())
	mockMgr.AssertExpectations(t)
}

// Ensure the parquet conversion stays aligned with the stored columns.
func TestScenarioRecordExportShape(t *testing.T) {
	rows := parquet.ConvertScenarioRecords([]schema.ScenarioRecord{{RunID: 1, HospitalID: "H1", Category: "CQM", Detail: "[]"}})
	require.Len(t, rows, 1)
	assert.Equal(t, "H1", rows[0].HospitalID)
}
