package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/qbmatrix/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 0 // all scenarios
	MaxResultLimit     = schema.MaxCombinations
	DefaultPrecision   = 2
	MaxPrecision       = 4
)

// DefaultWorkers is the default number of hospitals built concurrently.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a matrix run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath   string
	InputFormat schema.InputFormat
	Hospitals   []string // Empty means every hospital in the input
	ResultLimit int      // Scenarios shown per category in text output (0 = all)
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	MetricsFile string
	Width       int // Terminal width override (0 = auto-detect)
	DefaultSize schema.HospitalSize

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	// Xref maps a reporting hospital ID to the ID its rows are merged into.
	Xref map[string]string

	// Benchmarks is the validated benchmark set: defaults plus config file overrides.
	Benchmarks schema.BenchmarkSet

	UseColors bool // Enable colored payout labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	InputFormat      string `mapstructure:"input-format"`
	Hospital         string `mapstructure:"hospital"`
	OutputFile       string `mapstructure:"output-file"`
	MetricsFile      string `mapstructure:"metrics-file"`
	Limit            int    `mapstructure:"limit"`
	Workers          int    `mapstructure:"workers"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	Width            int    `mapstructure:"width"`
	DefaultSize      string `mapstructure:"default-size"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Color            string `mapstructure:"color"`

	// --- Hospital crosswalk from config file ---
	Xref map[string]string `mapstructure:"xref"`

	// --- Benchmark overrides from config file ---
	Benchmarks BenchmarksRawInput `mapstructure:"benchmarks"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Hospitals = slices.Clone(c.Hospitals)
	if c.Xref != nil {
		clone.Xref = maps.Clone(c.Xref)
	}
	clone.Benchmarks = CloneBenchmarks(c.Benchmarks)
	return &clone
}

// CloneBenchmarks returns a deep copy of a benchmark set.
func CloneBenchmarks(s schema.BenchmarkSet) schema.BenchmarkSet {
	out := schema.BenchmarkSet{Version: s.Version}
	if s.Measures != nil {
		out.Measures = make([]schema.MeasureBenchmark, len(s.Measures))
		for i, b := range s.Measures {
			b.Tiers = slices.Clone(b.Tiers)
			out.Measures[i] = b
		}
	}
	if s.Overall != nil {
		out.Overall = maps.Clone(s.Overall)
	}
	return out
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processInput(cfg, input); err != nil {
		return err
	}
	if err := processBenchmarks(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the run history backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.HistoryBackend))
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.HistoryBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.MetricsFile = input.MetricsFile
	cfg.Width = input.Width

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit cannot be negative or exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, yaml", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Hospital Selection ---
	cfg.Hospitals = ParseHospitalList(input.Hospital)

	// --- 5. Default Hospital Size ---
	cfg.DefaultSize = ""
	if strings.TrimSpace(input.DefaultSize) != "" {
		cfg.DefaultSize = schema.ParseHospitalSize(input.DefaultSize)
		if _, ok := schema.ValidHospitalSizes[cfg.DefaultSize]; !ok {
			return fmt.Errorf("invalid default size '%s'. must be Large, Medium, Small, Very-Small, Specialty", input.DefaultSize)
		}
	}

	return nil
}

// processInput resolves the input file and its format.
// It is a no-op when no input path was given, e.g. for the benchmarks command.
func processInput(cfg *Config, input *ConfigRawInput) error {
	cfg.Xref = make(map[string]string, len(input.Xref))
	for from, to := range input.Xref {
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if from == "" || to == "" {
			return fmt.Errorf("xref entries need both a source and a target hospital id")
		}
		cfg.Xref[from] = to
	}

	if input.InputPathStr == "" {
		cfg.InputPath = ""
		cfg.InputFormat = ""
		return nil
	}
	path, format, err := ResolveInputFile(input.InputPathStr, input.InputFormat)
	if err != nil {
		return err
	}
	cfg.InputPath = path
	cfg.InputFormat = format
	return nil
}

// ResolveInputFile makes path absolute, checks that it is a readable file and
// resolves its format. An empty format is taken from the file extension.
func ResolveInputFile(path, format string) (string, schema.InputFormat, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", "", fmt.Errorf("cannot read input file: %w", err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("input path %s is a directory", absPath)
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(absPath)), ".")
	}
	inputFormat := schema.InputFormat(format)
	if _, ok := schema.ValidInputFormats[inputFormat]; !ok {
		return "", "", fmt.Errorf("invalid input format '%s'. must be csv, json, parquet", format)
	}
	return absPath, inputFormat, nil
}

// ParseHospitalList splits a comma-separated list of hospital IDs, dropping
// blanks and repeats.
func ParseHospitalList(s string) []string {
	var ids []string
	for p := range strings.SplitSeq(s, ",") {
		if id := strings.TrimSpace(p); id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// processBenchmarks merges benchmark overrides onto the defaults.
func processBenchmarks(cfg *Config, input *ConfigRawInput) error {
	set, err := ProcessBenchmarksRawInput(input.Benchmarks)
	if err != nil {
		return fmt.Errorf("invalid benchmarks: %w", err)
	}
	cfg.Benchmarks = set
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
