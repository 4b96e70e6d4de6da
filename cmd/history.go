package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/iocache"
	"github.com/huangsam/qbmatrix/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyConfig reads the history backend settings without the full setup,
// since history commands take no input file.
func historyConfig() error {
	setConfigSource()
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(viper.GetString("history-backend"))))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper opens the history store for status and export.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	return iocache.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// historyConfigWrapper only loads settings. Clear and migrate must work on
// databases the store would otherwise create tables in.
func historyConfigWrapper(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = contract.GetHistoryDBFilePath()
	}
	return nil
}

// historyStore returns the open store or fails when tracking is disabled.
func historyStore() (contract.HistoryStore, error) {
	if storeManager == nil {
		return nil, errors.New("run history is not initialized")
	}
	store := storeManager.GetHistoryStore()
	if store == nil {
		return nil, errors.New("run history is not initialized")
	}
	return store, nil
}

// historyCmd groups run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded matrix runs and exports",
	Long: `Manage the history of matrix runs.

When a history backend is configured, every matrix run stores:
- Run metadata (timestamps, input path, benchmark version)
- The deduplicated scenarios of every category for every hospital

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export runs and scenarios to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Check history status
  qbmatrix history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  qbmatrix history export --history-backend sqlite --output-file qb-history`,
}

// historyStatusCmd shows run history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend in use, whether it is reachable, how many runs and
scenario records are stored and when the oldest and latest runs happened.

Examples:
  qbmatrix history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := historyStore()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and scenarios to two Parquet files:
<output-file>.runs.parquet and <output-file>.scenarios.parquet.

Requires: --output-file parameter

Examples:
  qbmatrix history export --history-backend sqlite --output-file qb-history
  duckdb -c "SELECT * FROM read_parquet('qb-history.scenarios.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := historyStore()
		if err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
		if err := iocache.ExecuteHistoryExport(store, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded run history",
	Long: `Delete all stored runs and scenarios.

For SQLite the database file is removed. For MySQL and PostgreSQL the
history tables are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  qbmatrix history export --history-backend sqlite --output-file backup
  qbmatrix history clear --history-backend sqlite`,
	PreRunE: historyConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  qbmatrix history migrate --history-backend postgresql --history-db-connect "host=db dbname=qb"

  # Roll back to the initial state
  qbmatrix history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		report, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(report)
	},
}
