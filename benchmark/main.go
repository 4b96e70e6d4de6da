// Package main provides a performance benchmarking tool for the qbmatrix CLI.
// It generates synthetic measure files of increasing size, times the matrix
// command on each of them with and without run history, treating the first
// successful run as cold and averaging the rest as warm, and writes a CSV
// summary for performance analysis and documentation.
//
// Prerequisites:
// - qbmatrix binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated inputs and the SQLite history file
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/source"
	"github.com/huangsam/qbmatrix/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset       string
	Command       string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Workers       int
	NoHistoryRuns int
	HistoryRuns   int
	Datasets      map[string]int // Name to hospital count
	Order         []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Workers:       8,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Datasets:      map[string]int{"small": 10, "medium": 100, "large": 1000, "xlarge": 5000},
		Order:         []string{"small", "medium", "large", "xlarge"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	inputs, err := generateInputs(config)
	if err != nil {
		fmt.Printf("Failed to generate inputs: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, inputs)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the qbmatrix binary exists and the work dir is usable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("qbmatrix"); err != nil {
		return fmt.Errorf("qbmatrix binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateInputs writes one CSV per dataset with every default measure for each hospital.
func generateInputs(config BenchmarkConfig) (map[string]string, error) {
	rng := rand.New(rand.NewPCG(42, 7))
	set := contract.DefaultBenchmarks()
	sizes := []string{"Large", "Medium", "Small", "Very-Small", "Specialty"}

	inputs := make(map[string]string, len(config.Datasets))
	for _, name := range config.Order {
		var rows []schema.MeasureRow
		for h := range config.Datasets[name] {
			id := fmt.Sprintf("H%05d", h)
			size := sizes[h%len(sizes)]
			for _, b := range set.Measures {
				rows = append(rows, syntheticRow(rng, id, size, b))
			}
		}

		path := filepath.Join(config.WorkDir, fmt.Sprintf("measures_%s.csv", name))
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		err = source.WriteCSV(file, rows)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		inputs[name] = path
		fmt.Printf("Generated %s: %d hospitals, %d rows\n", path, config.Datasets[name], len(rows))
	}
	return inputs, nil
}

// syntheticRow draws a plausible observation around the benchmark's tiers.
func syntheticRow(rng *rand.Rand, id, size string, b schema.MeasureBenchmark) schema.MeasureRow {
	row := schema.MeasureRow{HospitalID: id, HospitalName: "Hospital " + id, HospitalSize: size, Measure: b.ID}
	switch {
	case b.RowThresholds:
		target := 15000 + rng.Float64()*10000
		row.Value = target * (0.9 + rng.Float64()*0.25)
		row.Denominator = float64(5 + rng.IntN(80))
		row.Thresholds = []float64{target * 0.95, target, target * 1.05}
	case !b.HasDenominator:
		row.Value = 2.5 + rng.Float64()*2.5
	default:
		row.Denominator = float64(20 + rng.IntN(800))
		rate := 0.05 + rng.Float64()*0.3
		if len(b.Tiers) > 0 {
			rate = b.Tiers[len(b.Tiers)-1].Threshold * (0.8 + rng.Float64()*0.4)
		}
		row.Numerator = float64(int(rate * row.Denominator))
		if b.RiskAdjusted {
			row.ExpectedNumerator = rate * row.Denominator * (0.9 + rng.Float64()*0.2)
			row.MarketExpected = rate
		}
	}
	return row
}

// runBenchmarks executes the matrix and tiers commands across every dataset.
func runBenchmarks(config BenchmarkConfig, inputs map[string]string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-history: %d runs, history: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoHistoryRuns, config.HistoryRuns)

	for _, name := range config.Order {
		fmt.Printf("Benchmarking %s\n", name)
		results = append(results, runBenchmarkSuite(config, name, "matrix", inputs[name], "--output csv --output-file "+filepath.Join(config.WorkDir, "matrix_"+name+".csv")))
		results = append(results, runBenchmarkSuite(config, name, "tiers", inputs[name], "--output json --output-file "+filepath.Join(config.WorkDir, "tiers_"+name+".json")))
	}

	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, command, inputPath, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, command, inputPath, extraArgs, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No run history
	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")

	// Phase 2: SQLite run history
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:       dataset,
		Command:       command,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes a qbmatrix command multiple times with the given history backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, command, inputPath, extraArgs, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, inputPath, "--history-backend", backend, "--workers", fmt.Sprint(config.Workers)}
	if backend == "sqlite" {
		args = append(args, "--history-db-connect", filepath.Join(config.WorkDir, "history.db"))
	}
	args = append(args, strings.Fields(extraArgs)...)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("qbmatrix", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates the result was written
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "💾 Wrote")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("qbmatrix_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "matrix", "Matrix Build:")
	printCommandSummary(results, "tiers", "Tier Listing:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-history: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoHistoryTime, result.ColdTime, result.WarmTime)
		}
	}
}
