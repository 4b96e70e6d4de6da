package core

import (
	"maps"
	"testing"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleHospital has scored data in all three categories.
func sampleHospital() schema.HospitalInput {
	measures := maps.Clone(cqmRows)
	measures["qb"] = schema.MeasureRow{Value: 4.2}
	measures["mjr"] = schema.MeasureRow{Value: 21500, Denominator: 40, Thresholds: []float64{19000, 21000, 23000}}
	return schema.HospitalInput{ID: "H1", Name: "General", Size: schema.MediumHospital, Measures: measures}
}

// TestBuildHospitalMatrix tests category totals and grid shape for a full hospital.
func TestBuildHospitalMatrix(t *testing.T) {
	set := contract.DefaultBenchmarks()
	m, err := BuildHospitalMatrix(sampleHospital(), set)
	require.NoError(t, err)

	require.Len(t, m.Categories, 3)
	for i, c := range schema.AllCategories {
		assert.Equal(t, c, m.Categories[i].Category)
	}
	assert.Equal(t, 80.0, m.TotalPointsAvailable)

	episodes, _ := m.Category(schema.EpisodeCategory)
	bundles, _ := m.Category(schema.BundleCategory)
	cqm, _ := m.Category(schema.CQMCategory)

	assert.Equal(t, 30.0, episodes.PointsAvailable)
	assert.Equal(t, 15.0, episodes.PointsEarned)
	assert.Equal(t, 20.0, bundles.PointsAvailable)
	assert.Equal(t, 22.0, bundles.PointsEarned)
	assert.Equal(t, 30.0, cqm.PointsAvailable)
	assert.Equal(t, 16384, cqm.RawCombinations)
	assert.InDelta(t, episodes.PointsEarned+bundles.PointsEarned+cqm.PointsEarned, m.TotalPointsEarned, 1e-9)

	assert.Equal(t, OverallScore(m.TotalPointsEarned, m.TotalPointsAvailable), m.CurrentScore)
	assert.Equal(t, set.Overall[schema.MediumHospital].Classify(m.CurrentScore), m.CurrentPayout)

	assert.Len(t, m.Grid.Columns, len(cqm.Scenarios))
	assert.Len(t, m.Grid.Rows, len(episodes.Scenarios)*len(bundles.Scenarios))

	row, col, ok := CurrentCell(m.Grid)
	require.True(t, ok)
	assert.InDelta(t, m.CurrentScore, m.Grid.Rows[row].Cells[col].Score, 0.011)
}

// TestBuildHospitalMatrix_UnknownSize tests that sizes without overall benchmarks are rejected.
func TestBuildHospitalMatrix_UnknownSize(t *testing.T) {
	h := sampleHospital()
	h.Size = "Huge"
	_, err := BuildHospitalMatrix(h, contract.DefaultBenchmarks())
	assert.ErrorIs(t, err, ErrUnknownHospitalSize)
}

// TestBuildHospitalMatrix_BadRowThresholds tests that malformed episode targets fail the hospital.
func TestBuildHospitalMatrix_BadRowThresholds(t *testing.T) {
	h := sampleHospital()
	h.Measures["copd"] = schema.MeasureRow{Value: 9000, Denominator: 20, Thresholds: []float64{1}}
	_, err := BuildHospitalMatrix(h, contract.DefaultBenchmarks())
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

// TestBuildHospitalMatrix_EmptyHospital tests that a hospital with no rows still gets a grid.
func TestBuildHospitalMatrix_EmptyHospital(t *testing.T) {
	h := schema.HospitalInput{ID: "H0", Size: schema.SmallHospital}
	m, err := BuildHospitalMatrix(h, contract.DefaultBenchmarks())
	require.NoError(t, err)
	assert.Zero(t, m.TotalPointsAvailable)
	assert.Zero(t, m.CurrentScore)
	assert.Equal(t, schema.ZeroPayout, m.CurrentPayout)
	require.Len(t, m.Grid.Rows, 1)
	require.Len(t, m.Grid.Rows[0].Cells, 1)
	assert.True(t, m.Grid.Rows[0].Cells[0].Current)
}

// TestBuildHospitalTiers tests that every configured measure is listed in benchmark order.
func TestBuildHospitalTiers(t *testing.T) {
	set := contract.DefaultBenchmarks()
	tiers, err := BuildHospitalTiers(sampleHospital(), set)
	require.NoError(t, err)
	assert.Equal(t, "H1", tiers.HospitalID)
	require.Len(t, tiers.Measures, len(set.Measures))
	for i, mt := range tiers.Measures {
		assert.Equal(t, set.Measures[i].ID, mt.Measure.ID)
		assert.NotEmpty(t, mt.Outcomes)
	}
}
