package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Limit:     0,
		Workers:   2,
		Precision: 2,
		Output:    "text",
		Color:     "no",
	}
}

func TestProcessAndValidate(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "measures.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("hospital_id,measure\n"), 0o644))
	txtPath := filepath.Join(dir, "measures.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(""), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"valid with csv input", func(in *ConfigRawInput) { in.InputPathStr = csvPath }, false},
		{"format override", func(in *ConfigRawInput) { in.InputPathStr = txtPath; in.InputFormat = "csv" }, false},
		{"unknown extension", func(in *ConfigRawInput) { in.InputPathStr = txtPath }, true},
		{"missing input file", func(in *ConfigRawInput) { in.InputPathStr = filepath.Join(dir, "nope.csv") }, true},
		{"input is a directory", func(in *ConfigRawInput) { in.InputPathStr = dir; in.InputFormat = "csv" }, true},
		{"negative limit", func(in *ConfigRawInput) { in.Limit = -1 }, true},
		{"zero workers", func(in *ConfigRawInput) { in.Workers = 0 }, true},
		{"precision too high", func(in *ConfigRawInput) { in.Precision = 5 }, true},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"parquet without file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"parquet with file", func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "out.parquet" }, false},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "sometimes" }, true},
		{"invalid backend", func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, true},
		{"mysql without connect", func(in *ConfigRawInput) { in.HistoryBackend = "mysql" }, true},
		{"sqlite backend", func(in *ConfigRawInput) { in.HistoryBackend = "SQLite" }, false},
		{"invalid default size", func(in *ConfigRawInput) { in.DefaultSize = "Tiny" }, true},
		{"valid default size", func(in *ConfigRawInput) { in.DefaultSize = "very small" }, false},
		{"empty xref target", func(in *ConfigRawInput) { in.Xref = map[string]string{"100": ""} }, true},
		{"invalid benchmark override", func(in *ConfigRawInput) {
			in.Benchmarks.Measures = []MeasureBenchmarkRaw{{ID: "hosp21", Tiers: []schema.Tier{{Points: 1, Threshold: 0.5}, {Points: 2, Threshold: 0.4}}}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateFields(t *testing.T) {
	input := validRawInput()
	input.Hospital = " 100, 200 ,100,"
	input.DefaultSize = "large"
	input.Xref = map[string]string{"101": "100"}
	input.HistoryBackend = ""

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []string{"100", "200"}, cfg.Hospitals)
	assert.Equal(t, schema.LargeHospital, cfg.DefaultSize)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, "100", cfg.Xref["101"])
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.False(t, cfg.UseColors)
	assert.Empty(t, cfg.InputPath)
	assert.NotEmpty(t, cfg.Benchmarks.Measures)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Hospitals:  []string{"100"},
		Xref:       map[string]string{"101": "100"},
		Benchmarks: DefaultBenchmarks(),
	}
	clone := cfg.Clone()

	clone.Hospitals[0] = "999"
	clone.Xref["101"] = "999"
	clone.Benchmarks.Measures[0].Tiers[0].Points = 99
	clone.Benchmarks.Overall[schema.LargeHospital] = schema.OverallBenchmark{}

	assert.Equal(t, "100", cfg.Hospitals[0])
	assert.Equal(t, "100", cfg.Xref["101"])
	assert.Equal(t, 7.0, cfg.Benchmarks.Measures[0].Tiers[0].Points)
	assert.Equal(t, 0.63, cfg.Benchmarks.Overall[schema.LargeHospital].Max)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "root:pw@tcp(localhost:3306)/qbmatrix", false},
		{"mysql missing tcp", schema.MySQLBackend, "root:pw@localhost/qbmatrix", true},
		{"mysql missing db", schema.MySQLBackend, "root:pw@tcp(localhost:3306)", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost dbname=qbmatrix", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=qbmatrix", true},
		{"postgres missing db", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	p := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(p, ""))
	assert.False(t, p.Enabled)

	require.NoError(t, ProcessProfilingConfig(p, "qbm"))
	assert.True(t, p.Enabled)
	assert.Equal(t, "qbm", p.Prefix)
}

func TestParseHospitalList(t *testing.T) {
	assert.Nil(t, ParseHospitalList(""))
	assert.Nil(t, ParseHospitalList(" , ,"))
	assert.Equal(t, []string{"A", "B"}, ParseHospitalList("A, B,A"))
}

func TestResolveInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.PARQUET")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	abs, format, err := ResolveInputFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, abs)
	assert.Equal(t, schema.ParquetIn, format)

	_, format, err = ResolveInputFile(path, " JSON ")
	require.NoError(t, err)
	assert.Equal(t, schema.JSONIn, format)

	_, _, err = ResolveInputFile(path, "xlsx")
	assert.ErrorContains(t, err, "invalid input format")
}
