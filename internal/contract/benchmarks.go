package contract

import (
	"fmt"
	"strings"

	"github.com/huangsam/qbmatrix/schema"
)

// DefaultBenchmarkVersion labels the built-in benchmark set.
const DefaultBenchmarkVersion = "2018"

// Floor epsilons for the implicit zero tier.
const (
	RateFloorEpsilon    = 0.0001
	RatingFloorEpsilon  = 0.01
	EpisodeFloorEpsilon = 1
)

// Minimum volumes before a measure is scored.
const (
	DefaultMinDenominator = 25
	DefaultMinEpisodes    = 10
	DefaultMinStarRating  = 1
)

// DefaultBenchmarks returns the built-in benchmark set. Each call returns a fresh copy.
func DefaultBenchmarks() schema.BenchmarkSet {
	measures := []schema.MeasureBenchmark{
		rateBenchmark("rracomm", "Risk-Adjusted All-Cause Readmissions - Commercial", schema.LowerIsBetter, true,
			[3]float64{7, 5, 3.5}, [3]float64{.0590, .0683, .0774}, "fewer Commercial Readmissions", "more Commercial Readmissions"),
		rateBenchmark("rrama", "Risk-Adjusted All-Cause Readmissions - MA", schema.LowerIsBetter, true,
			[3]float64{7, 5, 3.5}, [3]float64{.1292, .1432, .1558}, "fewer MA Readmissions", "more MA Readmissions"),
		rateBenchmark("hosp03", "HOSP03: Palliative Care for Complex Patients - MA", schema.HigherIsBetter, false,
			[3]float64{3, 2.25, 1}, [3]float64{.3480, .3225, .2889}, "fewer Palliative Care Consults (MA)", "more Palliative Care Consults (MA)"),
		rateBenchmark("hosp04", "HOSP04: Palliative Care for Complex Patients - COM", schema.HigherIsBetter, false,
			[3]float64{3, 2.25, 1}, [3]float64{.1154, .0802, .0530}, "fewer Palliative Care Consults (Comm)", "more Palliative Care Consults (Comm)"),
		rateBenchmark("hosp19", "HOSP19: 3 Day Return Visits to the ED - MA", schema.LowerIsBetter, false,
			[3]float64{3, 2.5, 2}, [3]float64{.0650, .0706, .0812}, "fewer 3 Day ED Returns (MA)", "more 3 Day ED Returns (MA)"),
		rateBenchmark("hosp20", "HOSP20: 3 Day Return Visits to the ED - Commercial", schema.LowerIsBetter, false,
			[3]float64{3, 2.5, 2}, [3]float64{.0450, .0489, .0523}, "fewer 3 Day ED Returns (Comm)", "more 3 Day ED Returns (Comm)"),
		rateBenchmark("hosp21", "HOSP21: 7 Day Follow-Up", schema.HigherIsBetter, false,
			[3]float64{4, 3, 2}, [3]float64{.6391, .6062, .5677}, "fewer 7 Day Follow-Up", "more 7 Day Follow-Up"),
		profiledBenchmark("hosp22", "HOSP22: Preop Laboratory Studies [Profiled]"),
		profiledBenchmark("hosp23", "HOSP23: Preop Cardiac Echo or Stress Testing [Profiled]"),
		profiledBenchmark("hosp24", "HOSP24: Preop EKG, Chest X-Ray, Pulm Function Test [Profiled]"),
		{
			ID:              "qb",
			Title:           "Quality Bundle Star Rating",
			Category:        schema.BundleCategory,
			Direction:       schema.HigherIsBetter,
			PointsAvailable: 20,
			MinValue:        DefaultMinStarRating,
			FloorEpsilon:    RatingFloorEpsilon,
			Tiers: []schema.Tier{
				{Points: 25, Threshold: 4.51},
				{Points: 22, Threshold: 4.01},
				{Points: 20, Threshold: 4.0},
				{Points: 13, Threshold: 3.75},
				{Points: 7, Threshold: 3.5},
			},
		},
		episodeBenchmark("MJR", "Major Joint Replacement of the Lower Extremity", 30),
		episodeBenchmark("COPD", "Chronic Obstructive Pulmonary Disease", 5),
		episodeBenchmark("PNEU", "Pneumonia", 5),
	}
	return schema.BenchmarkSet{
		Version:  DefaultBenchmarkVersion,
		Measures: measures,
		Overall: map[schema.HospitalSize]schema.OverallBenchmark{
			schema.LargeHospital:     {Max: .63, Mid: .51, Min: .45},
			schema.MediumHospital:    {Max: .62, Mid: .50, Min: .38},
			schema.SmallHospital:     {Max: .71, Mid: .585, Min: .43},
			schema.VerySmallHospital: {Max: .86, Mid: .60, Min: .41},
			schema.SpecialtyHospital: {Max: .80, Mid: .60, Min: .34},
		},
	}
}

func rateBenchmark(id, title string, dir schema.Direction, risk bool, points, thresholds [3]float64, less, more string) schema.MeasureBenchmark {
	tiers := make([]schema.Tier, len(points))
	for i := range points {
		tiers[i] = schema.Tier{Points: points[i], Threshold: thresholds[i]}
	}
	return schema.MeasureBenchmark{
		ID:             id,
		Title:          title,
		Category:       schema.CQMCategory,
		Direction:      dir,
		Tiers:          tiers,
		HasDenominator: true,
		MinDenominator: DefaultMinDenominator,
		RiskAdjusted:   risk,
		FloorEpsilon:   RateFloorEpsilon,
		LessComment:    less,
		MoreComment:    more,
	}
}

func profiledBenchmark(id, title string) schema.MeasureBenchmark {
	return schema.MeasureBenchmark{
		ID:             id,
		Title:          title,
		Category:       schema.CQMCategory,
		Direction:      schema.LowerIsBetter,
		HasDenominator: true,
		MinDenominator: DefaultMinDenominator,
	}
}

// episodeBenchmark scores average episode cost against hospital-specific
// targets at 100%, 75% and 50% of the available points.
func episodeBenchmark(id, title string, points float64) schema.MeasureBenchmark {
	return schema.MeasureBenchmark{
		ID:             id,
		Title:          title,
		Category:       schema.EpisodeCategory,
		Direction:      schema.LowerIsBetter,
		MinDenominator: DefaultMinEpisodes,
		FloorEpsilon:   EpisodeFloorEpsilon,
		RowThresholds:  true,
		Tiers: []schema.Tier{
			{Points: points},
			{Points: points * .75},
			{Points: points * .5},
		},
	}
}

// MeasureBenchmarkRaw is one benchmark override from the YAML config file.
// Nil fields keep the built-in value. Supplying tiers replaces them all.
type MeasureBenchmarkRaw struct {
	ID              string        `mapstructure:"id"`
	Disabled        bool          `mapstructure:"disabled"`
	Title           *string       `mapstructure:"title"`
	Category        *string       `mapstructure:"category"`
	Direction       *string       `mapstructure:"direction"`
	Tiers           []schema.Tier `mapstructure:"tiers"`
	PointsAvailable *float64      `mapstructure:"points_available"`
	HasDenominator  *bool         `mapstructure:"has_denominator"`
	MinDenominator  *float64      `mapstructure:"min_denominator"`
	MinValue        *float64      `mapstructure:"min_value"`
	RiskAdjusted    *bool         `mapstructure:"risk_adjusted"`
	FloorEpsilon    *float64      `mapstructure:"floor_epsilon"`
	RowThresholds   *bool         `mapstructure:"row_thresholds"`
	LessComment     *string       `mapstructure:"less_comment"`
	MoreComment     *string       `mapstructure:"more_comment"`
}

// OverallBenchmarkRaw overrides the payout cut points of one hospital size.
type OverallBenchmarkRaw struct {
	Max *float64 `mapstructure:"max"`
	Mid *float64 `mapstructure:"mid"`
	Min *float64 `mapstructure:"min"`
}

// BenchmarksRawInput holds all benchmark overrides from the YAML config file.
type BenchmarksRawInput struct {
	Version  string                         `mapstructure:"version"`
	Replace  bool                           `mapstructure:"replace"` // Start from an empty set instead of the defaults
	Measures []MeasureBenchmarkRaw          `mapstructure:"measures"`
	Overall  map[string]OverallBenchmarkRaw `mapstructure:"overall"`
}

// ProcessBenchmarksRawInput merges raw overrides onto the defaults and validates the result.
func ProcessBenchmarksRawInput(raw BenchmarksRawInput) (schema.BenchmarkSet, error) {
	set := DefaultBenchmarks()
	if raw.Replace {
		set.Measures = nil
	}
	if raw.Version != "" {
		set.Version = raw.Version
	}

	for _, r := range raw.Measures {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return schema.BenchmarkSet{}, fmt.Errorf("benchmark override is missing an id")
		}
		idx := -1
		for i, b := range set.Measures {
			if b.ID == id {
				idx = i
				break
			}
		}
		if r.Disabled {
			if idx >= 0 {
				set.Measures = append(set.Measures[:idx], set.Measures[idx+1:]...)
			}
			continue
		}
		if idx < 0 {
			set.Measures = append(set.Measures, schema.MeasureBenchmark{ID: id, FloorEpsilon: RateFloorEpsilon})
			idx = len(set.Measures) - 1
		}
		applyMeasureOverride(&set.Measures[idx], r)
	}

	for key, r := range raw.Overall {
		size := schema.ParseHospitalSize(key)
		b := set.Overall[size]
		if r.Max != nil {
			b.Max = *r.Max
		}
		if r.Mid != nil {
			b.Mid = *r.Mid
		}
		if r.Min != nil {
			b.Min = *r.Min
		}
		set.Overall[size] = b
	}

	if err := ValidateBenchmarks(set); err != nil {
		return schema.BenchmarkSet{}, err
	}
	return set, nil
}

func applyMeasureOverride(b *schema.MeasureBenchmark, r MeasureBenchmarkRaw) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Category != nil {
		b.Category = schema.Category(strings.ToLower(*r.Category))
	}
	if r.Direction != nil {
		b.Direction = schema.Direction(strings.ToLower(*r.Direction))
	}
	if r.Tiers != nil {
		b.Tiers = append([]schema.Tier(nil), r.Tiers...)
	}
	if r.PointsAvailable != nil {
		b.PointsAvailable = *r.PointsAvailable
	}
	if r.HasDenominator != nil {
		b.HasDenominator = *r.HasDenominator
	}
	if r.MinDenominator != nil {
		b.MinDenominator = *r.MinDenominator
	}
	if r.MinValue != nil {
		b.MinValue = *r.MinValue
	}
	if r.RiskAdjusted != nil {
		b.RiskAdjusted = *r.RiskAdjusted
	}
	if r.FloorEpsilon != nil {
		b.FloorEpsilon = *r.FloorEpsilon
	}
	if r.RowThresholds != nil {
		b.RowThresholds = *r.RowThresholds
	}
	if r.LessComment != nil {
		b.LessComment = *r.LessComment
	}
	if r.MoreComment != nil {
		b.MoreComment = *r.MoreComment
	}
}

// ValidateBenchmarks checks every measure definition and the worst-case size
// of each category's cross product.
func ValidateBenchmarks(set schema.BenchmarkSet) error {
	seen := make(map[string]struct{}, len(set.Measures))
	worst := make(map[schema.Category]int, len(schema.AllCategories))
	for _, b := range set.Measures {
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate benchmark id '%s'", b.ID)
		}
		seen[b.ID] = struct{}{}

		if _, ok := schema.ValidCategories[b.Category]; !ok {
			return fmt.Errorf("benchmark %s: invalid category '%s'. must be cqm, bundle, episode", b.ID, b.Category)
		}
		if _, ok := schema.ValidDirections[b.Direction]; !ok {
			return fmt.Errorf("benchmark %s: invalid direction '%s'. must be higher, lower", b.ID, b.Direction)
		}
		if len(b.Tiers) > schema.MaxConfiguredTiers {
			return fmt.Errorf("benchmark %s: at most %d tiers allowed (received %d)", b.ID, schema.MaxConfiguredTiers, len(b.Tiers))
		}
		for i, t := range b.Tiers {
			if t.Points <= 0 {
				return fmt.Errorf("benchmark %s: tier %d points must be greater than 0", b.ID, i+1)
			}
			if i > 0 && t.Points >= b.Tiers[i-1].Points {
				return fmt.Errorf("benchmark %s: tier %d points must be below tier %d", b.ID, i+1, i)
			}
		}
		if !b.RowThresholds {
			if err := schema.CheckTierOrder(b.Direction, b.Tiers); err != nil {
				return fmt.Errorf("benchmark %s: %w", b.ID, err)
			}
		}
		if b.FloorEpsilon < 0 {
			return fmt.Errorf("benchmark %s: floor_epsilon cannot be negative", b.ID)
		}
		if b.PointsAvailable < 0 || b.MinDenominator < 0 {
			return fmt.Errorf("benchmark %s: points_available and min_denominator cannot be negative", b.ID)
		}

		n := len(b.Tiers) + 1
		if worst[b.Category] == 0 {
			worst[b.Category] = 1
		}
		worst[b.Category] *= n
		if worst[b.Category] > schema.MaxCombinations {
			return fmt.Errorf("category %s exceeds %d scenario combinations at benchmark %s", b.Category, schema.MaxCombinations, b.ID)
		}
	}

	for size, o := range set.Overall {
		if o.Max < o.Mid || o.Mid < o.Min || o.Min < 0 {
			return fmt.Errorf("overall benchmark for %s must satisfy max >= mid >= min >= 0", size)
		}
	}
	return nil
}
