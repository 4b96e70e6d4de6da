package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/parquet"
)

// ExecuteHistoryExport exports the run history of store to Parquet files
// named <outputFile>.runs.parquet and <outputFile>.scenarios.parquet.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total scenario records: %d\n", status.TableSizes[scenariosTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	scenarios, err := store.GetAllScenarios()
	if err != nil {
		return fmt.Errorf("failed to retrieve scenarios: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	scenariosFile := outputFile + ".scenarios.parquet"
	if err := parquet.WriteScenariosParquet(parquet.ConvertScenarioRecords(scenarios), scenariosFile); err != nil {
		return fmt.Errorf("failed to write scenarios: %w", err)
	}
	fmt.Printf("Exported %d scenario records to: %s\n", len(scenarios), scenariosFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Any other Parquet-compatible tool")
	return nil
}
