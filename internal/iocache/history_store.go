package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"
)

// Table names for run tracking.
const (
	runsTable      = "qbmatrix_runs"
	scenariosTable = "qbmatrix_scenarios"
)

// historyTables lists every table owned by the history store.
var historyTables = []string{runsTable, scenariosTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	sb         sq.StatementBuilderType
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// driverFor returns the database/sql driver name of a backend.
func driverFor(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite"
	case schema.MySQLBackend:
		return "mysql"
	case schema.PostgreSQLBackend:
		return "pgx"
	default:
		return ""
	}
}

// builderFor returns a statement builder with the placeholder style of a backend.
func builderFor(backend schema.DatabaseBackend) sq.StatementBuilderType {
	if backend == schema.PostgreSQLBackend {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// openDB opens and pings the database for a backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driverName := driverFor(backend)
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetHistoryDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// Run times are scanned as time.Time
		dsn, perr := gomysql.ParseDSN(connStr)
		if perr != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w", perr)
		}
		dsn.ParseTime = true
		db, err = sql.Open(driverName, dsn.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, nil
}

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend, sb: builderFor(backend)}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverFor(backend),
		sb:         builderFor(backend),
	}, nil
}

// createHistoryTables creates the run tracking tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{scenariosTable, getCreateScenariosQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for qbmatrix_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_runs (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				total_hospitals INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`

	case schema.PostgreSQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_runs (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid UUID NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				total_hospitals INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`

	default: // SQLite
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_runs (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_hospitals INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`
	}
}

// getCreateScenariosQuery returns the CREATE TABLE query for qbmatrix_scenarios.
func getCreateScenariosQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_scenarios (
				run_id BIGINT NOT NULL,
				hospital_id VARCHAR(64) NOT NULL,
				category VARCHAR(16) NOT NULL,
				scenario_index INT NOT NULL,
				total_points DOUBLE NOT NULL,
				total_change DOUBLE NOT NULL,
				is_current BOOLEAN NOT NULL,
				detail TEXT NOT NULL,
				PRIMARY KEY (run_id, hospital_id, category, scenario_index)
			);
		`

	case schema.PostgreSQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_scenarios (
				run_id BIGINT NOT NULL,
				hospital_id TEXT NOT NULL,
				category TEXT NOT NULL,
				scenario_index INT NOT NULL,
				total_points DOUBLE PRECISION NOT NULL,
				total_change DOUBLE PRECISION NOT NULL,
				is_current BOOLEAN NOT NULL,
				detail TEXT NOT NULL,
				PRIMARY KEY (run_id, hospital_id, category, scenario_index)
			);
		`

	default: // SQLite
		return `
			CREATE TABLE IF NOT EXISTS qbmatrix_scenarios (
				run_id INTEGER NOT NULL,
				hospital_id TEXT NOT NULL,
				category TEXT NOT NULL,
				scenario_index INTEGER NOT NULL,
				total_points REAL NOT NULL,
				total_change REAL NOT NULL,
				is_current INTEGER NOT NULL,
				detail TEXT NOT NULL,
				PRIMARY KEY (run_id, hospital_id, category, scenario_index)
			);
		`
	}
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	insert := hs.sb.Insert(runsTable).
		Columns("run_uuid", "start_time", "config_params").
		Values(uuid.NewString(), formatTime(startTime, hs.backend), string(configJSON))

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		err = insert.Suffix("RETURNING run_id").RunWith(hs.db).QueryRow().Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = insert.RunWith(hs.db).Exec()
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordScenarios stores the deduplicated scenarios of one category for a hospital.
func (hs *HistoryStoreImpl) RecordScenarios(runID int64, hospitalID string, category schema.Category, scenarios []schema.ScenarioCombination) error {
	if hs.disabled() || len(scenarios) == 0 {
		return nil
	}

	insert := hs.sb.Insert(scenariosTable).
		Columns("run_id", "hospital_id", "category", "scenario_index", "total_points", "total_change", "is_current", "detail")
	for i, s := range scenarios {
		detail, err := json.Marshal(s.Deltas)
		if err != nil {
			return fmt.Errorf("failed to marshal scenario %d: %w", i, err)
		}
		insert = insert.Values(runID, hospitalID, string(category), i, s.TotalPoints, s.TotalChange, s.Current, string(detail))
	}

	if _, err := insert.RunWith(hs.db).Exec(); err != nil {
		return fmt.Errorf("failed to insert scenarios for hospital %s: %w", hospitalID, err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalHospitals int) error {
	if hs.disabled() {
		return nil
	}

	row := hs.sb.Select("start_time").From(runsTable).Where(sq.Eq{"run_id": runID}).RunWith(hs.db).QueryRow()
	startTime, err := scanTime(row, hs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	_, err = hs.sb.Update(runsTable).
		Set("end_time", formatTime(endTime, hs.backend)).
		Set("run_duration_ms", endTime.Sub(startTime).Milliseconds()).
		Set("total_hospitals", totalHospitals).
		Where(sq.Eq{"run_id": runID}).
		RunWith(hs.db).Exec()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	if err := hs.sb.Select("COUNT(*)").From(runsTable).RunWith(hs.db).QueryRow().Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastStart any
		row := hs.sb.Select("run_id", "run_uuid", "start_time").From(runsTable).
			OrderBy("run_id DESC").Limit(1).RunWith(hs.db).QueryRow()
		if err := row.Scan(&status.LastRunID, &status.LastRunUUID, &lastStart); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := parseTime(lastStart)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		row = hs.sb.Select("start_time").From(runsTable).OrderBy("run_id ASC").Limit(1).RunWith(hs.db).QueryRow()
		if status.OldestRunTime, err = scanTime(row, hs.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		row = hs.sb.Select("COALESCE(SUM(total_hospitals), 0)").From(runsTable).RunWith(hs.db).QueryRow()
		if err := row.Scan(&status.TotalHospitals); err != nil {
			return status, fmt.Errorf("failed to get total hospitals: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.sb.Select("COUNT(*)").From(table).RunWith(hs.db).QueryRow().Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	rows, err := hs.sb.Select("run_id", "run_uuid", "start_time", "end_time", "run_duration_ms", "total_hospitals", "config_params").
		From(runsTable).OrderBy("run_id").RunWith(hs.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end any
		if err := rows.Scan(&record.RunID, &record.RunUUID, &start, &end, &record.RunDurationMs, &record.TotalHospitals, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if record.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			endTime, err := parseTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllScenarios retrieves all scenarios from the store.
func (hs *HistoryStoreImpl) GetAllScenarios() ([]schema.ScenarioRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	rows, err := hs.sb.Select("run_id", "hospital_id", "category", "scenario_index", "total_points", "total_change", "is_current", "detail").
		From(scenariosTable).OrderBy("run_id", "hospital_id", "category", "scenario_index").RunWith(hs.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ScenarioRecord
	for rows.Next() {
		var record schema.ScenarioRecord
		if err := rows.Scan(&record.RunID, &record.HospitalID, &record.Category, &record.ScenarioIndex,
			&record.TotalPoints, &record.TotalChange, &record.IsCurrent, &record.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// scanTime reads a single time column stored by formatTime.
func scanTime(row sq.RowScanner, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// parseTime converts a scanned time column, text for SQLite and native elsewhere.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}
