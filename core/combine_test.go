package core

import (
	"math"
	"testing"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cqmRows gives every default CQM measure enough volume to be scored.
var cqmRows = map[string]schema.MeasureRow{
	"rracomm": {Numerator: 7, Denominator: 100, ExpectedNumerator: 6, MarketExpected: 0.065},
	"rrama":   {Numerator: 14, Denominator: 100, ExpectedNumerator: 12, MarketExpected: 0.14},
	"hosp03":  {Numerator: 33, Denominator: 100},
	"hosp04":  {Numerator: 6, Denominator: 80},
	"hosp19":  {Numerator: 7, Denominator: 100},
	"hosp20":  {Numerator: 5, Denominator: 120},
	"hosp21":  {Numerator: 58, Denominator: 100},
	"hosp22":  {Numerator: 3, Denominator: 90},
}

func cqmMeasures(t *testing.T) []schema.MeasureTiers {
	t.Helper()
	h := schema.HospitalInput{ID: "H1", Measures: cqmRows}
	measures, err := BuildMeasures(h, contract.DefaultBenchmarks().ByCategory(schema.CQMCategory))
	require.NoError(t, err)
	return measures
}

func tiersFor(t *testing.T, b schema.MeasureBenchmark, row schema.MeasureRow) schema.MeasureTiers {
	t.Helper()
	m, err := NewMeasure(b, row)
	require.NoError(t, err)
	return schema.MeasureTiers{Measure: m, Outcomes: EnumerateTiers(m)}
}

// TestEnumerateCombinations_SingleMeasure tests that one measure yields one scenario per tier.
func TestEnumerateCombinations_SingleMeasure(t *testing.T) {
	mt := tiersFor(t, readmissionBenchmark(), schema.MeasureRow{Numerator: 8, Denominator: 100})
	scenarios, err := EnumerateCombinations([]schema.MeasureTiers{mt})
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	assert.Equal(t, []float64{0, 2, 3, 4}, totals(scenarios))
	top := scenarios[3]
	assert.Equal(t, 3.0, top.TotalChange)
	require.Len(t, top.Deltas, 1)
	assert.Equal(t, -3, top.Deltas[0].Count)
	assert.Equal(t, 5.0, top.Deltas[0].TargetNumerator)
	assert.Equal(t, 100.0, top.Deltas[0].Denominator)
	assert.Equal(t, "3 fewer Readmissions", top.Deltas[0].Comment)
	assert.Equal(t, "readm: 3 fewer Readmissions", top.Summary)

	current := scenarios[1]
	assert.True(t, current.Current)
	assert.Equal(t, NoChangeComment, current.Deltas[0].Comment)
	assert.Equal(t, "2 more Readmissions", scenarios[0].Deltas[0].Comment)
}

// TestEnumerateCombinations_AllIneligible tests the degenerate single zero scenario.
func TestEnumerateCombinations_AllIneligible(t *testing.T) {
	a := tiersFor(t, readmissionBenchmark(), schema.MeasureRow{})
	b := tiersFor(t, readmissionBenchmark(), schema.MeasureRow{Numerator: 1, Denominator: 10})

	scenarios, err := EnumerateCombinations([]schema.MeasureTiers{a, b})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Zero(t, scenarios[0].TotalPoints)
	assert.Zero(t, scenarios[0].TotalChange)
	assert.True(t, scenarios[0].Current)
	assert.Equal(t, NotScoredComment, scenarios[0].Summary)
	assert.Equal(t, NotScoredComment, scenarios[0].Deltas[0].Comment)
}

// TestEnumerateCombinations_NoMeasures tests that an empty category still has one scenario.
func TestEnumerateCombinations_NoMeasures(t *testing.T) {
	scenarios, err := EnumerateCombinations(nil)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Zero(t, scenarios[0].TotalPoints)
	assert.Empty(t, scenarios[0].Deltas)
}

// TestEnumerateCombinations_SevenMeasures checks size bounds and the dedup invariant on the CQM set.
func TestEnumerateCombinations_SevenMeasures(t *testing.T) {
	measures := cqmMeasures(t)

	raw, err := CrossProduct(measures)
	require.NoError(t, err)
	assert.Len(t, raw, int(math.Pow(4, 7)))

	maxPoints := 0.0
	for _, mt := range measures {
		maxPoints += mt.Measure.PointsAvailable
	}
	assert.Equal(t, 30.0, maxPoints)

	scenarios := ReduceScenarios(append([]schema.ScenarioCombination(nil), raw...))
	require.NotEmpty(t, scenarios)
	assert.Zero(t, scenarios[0].TotalPoints)
	assert.Equal(t, maxPoints, scenarios[len(scenarios)-1].TotalPoints)

	distinct := make(map[float64]float64)
	for _, s := range raw {
		if c, ok := distinct[s.TotalPoints]; !ok || s.TotalChange < c {
			distinct[s.TotalPoints] = s.TotalChange
		}
	}
	assert.Len(t, scenarios, len(distinct))
	for i, s := range scenarios {
		if i > 0 {
			assert.Greater(t, s.TotalPoints, scenarios[i-1].TotalPoints)
		}
		assert.Equal(t, distinct[s.TotalPoints], s.TotalChange, "cheapest scenario for %v points", s.TotalPoints)
		assert.Len(t, s.Deltas, len(measures))
	}
}

// TestEnumerateCombinations_Idempotent tests that a second run gives the same ordered result.
func TestEnumerateCombinations_Idempotent(t *testing.T) {
	first, err := EnumerateCombinations(cqmMeasures(t))
	require.NoError(t, err)
	second, err := EnumerateCombinations(cqmMeasures(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestEnumerateCombinations_CurrentScenario tests that today's total is flagged.
func TestEnumerateCombinations_CurrentScenario(t *testing.T) {
	measures := cqmMeasures(t)
	earned := 0.0
	for _, mt := range measures {
		earned += mt.Measure.PointsEarned
	}

	scenarios, err := EnumerateCombinations(measures)
	require.NoError(t, err)

	var flagged []float64
	for _, s := range scenarios {
		if s.Current {
			flagged = append(flagged, s.TotalPoints)
		}
	}
	assert.Equal(t, []float64{schema.RoundTo(earned, 4)}, flagged)
}

// TestCombinationCount_Bounds tests both guards on the cross product size.
func TestCombinationCount_Bounds(t *testing.T) {
	tooTall := schema.MeasureTiers{
		Measure:  schema.Measure{ID: "tall"},
		Outcomes: make([]schema.TierOutcome, schema.MaxTiersPerMeasure+1),
	}
	_, err := CombinationCount([]schema.MeasureTiers{tooTall})
	assert.ErrorIs(t, err, ErrTooManyTiers)

	wide := make([]schema.MeasureTiers, 7)
	for i := range wide {
		wide[i] = schema.MeasureTiers{Outcomes: make([]schema.TierOutcome, schema.MaxTiersPerMeasure)}
	}
	_, err = CrossProduct(wide)
	assert.ErrorIs(t, err, ErrTooManyCombinations)

	n, err := CombinationCount(wide[:6])
	require.NoError(t, err)
	assert.Equal(t, int(math.Pow(schema.MaxTiersPerMeasure, 6)), n)

	n, err = CombinationCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func totals(scenarios []schema.ScenarioCombination) []float64 {
	out := make([]float64, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.TotalPoints
	}
	return out
}
