package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/qbmatrix/schema"
)

// ErrUnknownHospitalSize is returned when no overall benchmark exists for a hospital size.
var ErrUnknownHospitalSize = errors.New("unknown hospital size")

// BuildHospitalMatrix scores every configured measure for one hospital,
// enumerates each category's scenarios independently and crosses them into
// the overall scoring grid.
func BuildHospitalMatrix(h schema.HospitalInput, set schema.BenchmarkSet) (schema.HospitalMatrix, error) {
	overall, ok := set.Overall[h.Size]
	if !ok {
		return schema.HospitalMatrix{}, fmt.Errorf("%w: %q for hospital %s", ErrUnknownHospitalSize, h.Size, h.ID)
	}

	result := schema.HospitalMatrix{
		HospitalID:   h.ID,
		HospitalName: h.Name,
		HospitalSize: h.Size,
		Categories:   make([]schema.CategoryResult, 0, len(schema.AllCategories)),
	}
	for _, c := range schema.AllCategories {
		r, err := BuildCategory(h, set.ByCategory(c), c)
		if err != nil {
			return schema.HospitalMatrix{}, fmt.Errorf("hospital %s: %w", h.ID, err)
		}
		result.TotalPointsAvailable += r.PointsAvailable
		result.TotalPointsEarned += r.PointsEarned
		result.Categories = append(result.Categories, r)
	}
	result.TotalPointsAvailable = schema.RoundTo(result.TotalPointsAvailable, 4)
	result.TotalPointsEarned = schema.RoundTo(result.TotalPointsEarned, 4)
	result.CurrentScore = OverallScore(result.TotalPointsEarned, result.TotalPointsAvailable)
	result.CurrentPayout = overall.Classify(result.CurrentScore)

	episodes, _ := result.Category(schema.EpisodeCategory)
	bundles, _ := result.Category(schema.BundleCategory)
	cqm, _ := result.Category(schema.CQMCategory)
	result.Grid = BuildGrid(episodes, bundles, cqm, result.TotalPointsAvailable, overall)
	return result, nil
}

// BuildCategory builds the measures of one category and its deduplicated scenarios.
// Benchmarks with no input row are carried as ineligible measures.
func BuildCategory(h schema.HospitalInput, benches []schema.MeasureBenchmark, c schema.Category) (schema.CategoryResult, error) {
	r := schema.CategoryResult{Category: c}
	measures, err := BuildMeasures(h, benches)
	if err != nil {
		return r, err
	}
	r.Measures = measures
	for _, mt := range measures {
		r.PointsAvailable += mt.Measure.PointsAvailable
		r.PointsEarned += mt.Measure.PointsEarned
	}
	r.PointsAvailable = schema.RoundTo(r.PointsAvailable, 4)
	r.PointsEarned = schema.RoundTo(r.PointsEarned, 4)
	r.Eligible = r.PointsAvailable > 0

	all, err := CrossProduct(r.Measures)
	if err != nil {
		return r, fmt.Errorf("%s: %w", c, err)
	}
	r.RawCombinations = len(all)
	r.Scenarios = ReduceScenarios(all)
	return r, nil
}

// BuildMeasures scores each benchmark against the hospital's row and
// enumerates its tiers, in benchmark order.
func BuildMeasures(h schema.HospitalInput, benches []schema.MeasureBenchmark) ([]schema.MeasureTiers, error) {
	out := make([]schema.MeasureTiers, 0, len(benches))
	for _, b := range benches {
		m := ineligibleMeasure(b)
		if row, ok := h.Measures[schema.MeasureKey(b.ID)]; ok {
			var err error
			if m, err = NewMeasure(b, row); err != nil {
				return nil, fmt.Errorf("measure %s: %w", b.ID, err)
			}
		}
		out = append(out, schema.MeasureTiers{Measure: m, Outcomes: EnumerateTiers(m)})
	}
	return out, nil
}

// BuildHospitalTiers lists the tier outcomes of every configured measure
// without building any combinations.
func BuildHospitalTiers(h schema.HospitalInput, set schema.BenchmarkSet) (schema.HospitalTiers, error) {
	measures, err := BuildMeasures(h, set.Measures)
	if err != nil {
		return schema.HospitalTiers{}, fmt.Errorf("hospital %s: %w", h.ID, err)
	}
	return schema.HospitalTiers{HospitalID: h.ID, HospitalName: h.Name, Measures: measures}, nil
}
