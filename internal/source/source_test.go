package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/qbmatrix/internal/parquet"
	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	file, err := os.Open(filepath.Join("testdata", "measures.csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := ReadCSV(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, schema.MeasureRow{
		HospitalID: "H001", HospitalName: "General Hospital", HospitalSize: "Large",
		Measure: "hosp03", Numerator: 30, Denominator: 100,
	}, rows[0])
	assert.Equal(t, 52.0, rows[1].ExpectedNumerator)
	assert.Equal(t, 0.14, rows[1].MarketExpected)
	assert.Equal(t, 4.2, rows[2].Value)
	assert.Equal(t, []float64{19000, 21000, 23000}, rows[3].Thresholds)
	assert.Equal(t, 0.0, rows[4].Numerator, "NA reads as zero")
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing measure column", "hospital_id,value\nH1,3\n", "missing required column: measure"},
		{"bad number", "hospital_id,measure,denominator\nH1,hosp03,abc\n", "line 2: column denominator"},
		{"bad thresholds", "hospital_id,measure,thresholds\nH1,MJR,1;x\n", "column thresholds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReadCSV_EmptyAndReordered(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ReadCSV(context.Background(), strings.NewReader("Measure, Denominator ,Hospital_ID\nhosp03,\"1,200\",H1\n,,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "H1", rows[0].HospitalID)
	assert.Equal(t, 1200.0, rows[0].Denominator)
}

func TestReadCSV_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("hospital_id,measure\nH1,hosp03\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows := []schema.MeasureRow{
		{HospitalID: "H1", Measure: "hosp03", Numerator: 30, Denominator: 100},
		{HospitalID: "H1", Measure: "MJR", Value: 21500, Denominator: 40, Thresholds: []float64{19000, 21000, 23000}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	got, err := ReadCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	rows := []schema.MeasureRow{{HospitalID: "H1", Measure: "hosp03", Numerator: 30, Denominator: 100}}

	jsonPath := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"hospital_id":"H1","measure":"hosp03","numerator":30,"denominator":100}]`), 0o644))
	parquetPath := filepath.Join(dir, "in.parquet")
	require.NoError(t, parquet.WriteMeasureRowsParquet(rows, parquetPath))

	tests := []struct {
		name   string
		path   string
		format schema.InputFormat
		wantID string
	}{
		{"csv", filepath.Join("testdata", "measures.csv"), "", "H001"},
		{"json", jsonPath, schema.JSONIn, "H1"},
		{"parquet", parquetPath, schema.ParquetIn, "H1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFileSource(tt.path, tt.format).Load(context.Background())
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.wantID, got[0].HospitalID)
		})
	}

	_, err := NewFileSource(filepath.Join(dir, "missing.csv"), schema.CSVIn).Load(context.Background())
	assert.Error(t, err)
	_, err = NewFileSource(jsonPath, schema.InputFormat("xlsx")).Load(context.Background())
	assert.ErrorContains(t, err, "unsupported input format")
}

func TestMergeXref(t *testing.T) {
	rows := []schema.MeasureRow{
		{HospitalID: "A", HospitalName: "Main", Measure: "hosp03", Numerator: 30, Denominator: 100, ExpectedNumerator: 10, MarketExpected: .1},
		{HospitalID: "B", Measure: "hosp03", Numerator: 10, Denominator: 50, ExpectedNumerator: 5, MarketExpected: .2},
		{HospitalID: "B", Measure: "qb", Value: 4},
		{HospitalID: "C", Measure: "hosp03", Numerator: 1, Denominator: 2},
	}
	got := MergeXref(rows, map[string]string{"B": "A"})
	require.Len(t, got, 3)

	assert.Equal(t, "A", got[0].HospitalID)
	assert.Equal(t, 40.0, got[0].Numerator)
	assert.Equal(t, 150.0, got[0].Denominator)
	assert.Equal(t, 15.0, got[0].ExpectedNumerator)
	assert.InDelta(t, .15, got[0].MarketExpected, 1e-12)
	assert.Equal(t, "Main", got[0].HospitalName)

	assert.Equal(t, schema.MeasureRow{HospitalID: "A", Measure: "qb", Value: 4}, got[1])
	assert.Equal(t, "C", got[2].HospitalID)

	assert.Equal(t, rows, MergeXref(rows, nil))
}

func TestMergeXref_MarketExpectedMean(t *testing.T) {
	tests := []struct {
		name    string
		markets []float64
		want    float64
	}{
		{"two markets", []float64{.1, .2}, .15},
		{"missing market skipped", []float64{.1, 0, .4}, .25},
		{"missing on first row", []float64{0, .3}, .3},
		{"none reported", []float64{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []schema.MeasureRow
			xref := map[string]string{}
			for i, m := range tt.markets {
				id := string(rune('A' + i))
				if i > 0 {
					xref[id] = "A"
				}
				rows = append(rows, schema.MeasureRow{HospitalID: id, Measure: "rrama", Numerator: 5, Denominator: 50, ExpectedNumerator: 4, MarketExpected: m})
			}
			got := MergeXref(rows, xref)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[0].MarketExpected, 1e-12)
			assert.Equal(t, float64(50*len(tt.markets)), got[0].Denominator)
		})
	}
}

func TestMergeXref_WeightedValue(t *testing.T) {
	rows := []schema.MeasureRow{
		{HospitalID: "A", Measure: "MJR", Value: 20000, Denominator: 30},
		{HospitalID: "B", Measure: "MJR", Value: 24000, Denominator: 10},
	}
	got := MergeXref(rows, map[string]string{"A": "X", "B": "X"})
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].HospitalID)
	assert.InDelta(t, 21000, got[0].Value, 1e-9)
	assert.Equal(t, 40.0, got[0].Denominator)
}

func TestGroupHospitals(t *testing.T) {
	rows := []schema.MeasureRow{
		{HospitalID: "H2", Measure: "hosp03"},
		{HospitalID: "H1", HospitalName: "General", HospitalSize: "very small", Measure: "HOSP03"},
		{HospitalID: "H1", Measure: "MJR"},
	}
	got, err := GroupHospitals(rows, schema.LargeHospital)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "H2", got[0].ID)
	assert.Equal(t, "H2", got[0].Name)
	assert.Equal(t, schema.LargeHospital, got[0].Size)

	assert.Equal(t, "General", got[1].Name)
	assert.Equal(t, schema.VerySmallHospital, got[1].Size)
	assert.Contains(t, got[1].Measures, "hosp03")
	assert.Contains(t, got[1].Measures, "mjr")
}

func TestGroupHospitals_Errors(t *testing.T) {
	_, err := GroupHospitals([]schema.MeasureRow{{HospitalID: "H1", Measure: "hosp03"}, {HospitalID: "H1", Measure: "Hosp03"}}, "")
	assert.ErrorIs(t, err, ErrDuplicateRow)

	_, err = GroupHospitals([]schema.MeasureRow{{Measure: "hosp03"}}, "")
	assert.ErrorContains(t, err, "no hospital_id")

	_, err = GroupHospitals([]schema.MeasureRow{{HospitalID: "H1"}}, "")
	assert.ErrorContains(t, err, "no measure")
}

func TestSelectHospitals(t *testing.T) {
	all := []schema.HospitalInput{{ID: "H1"}, {ID: "H2"}, {ID: "H3"}}

	got, missing := SelectHospitals(all, nil)
	assert.Equal(t, all, got)
	assert.Empty(t, missing)

	got, missing = SelectHospitals(all, []string{"H3", "H9", "H1"})
	require.Len(t, got, 2)
	assert.Equal(t, "H3", got[0].ID)
	assert.Equal(t, "H1", got[1].ID)
	assert.Equal(t, []string{"H9"}, missing)
}

func TestLoadHospitals(t *testing.T) {
	src := NewFileSource(filepath.Join("testdata", "measures.csv"), schema.CSVIn)
	got, err := LoadHospitals(context.Background(), src, map[string]string{"H002": "H001"}, schema.MediumHospital)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "H001", got[0].ID)
	assert.Len(t, got[0].Measures, 5)
	assert.Equal(t, schema.LargeHospital, got[0].Size)
}
