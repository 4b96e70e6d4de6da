package schema

// MeasureBenchmark is the configured scoring definition for one measure.
// Tiers go best first. A benchmark without tiers is profiled only and never
// earns points. With RowThresholds set, tier points come from the benchmark
// and thresholds from each hospital's input row (episode cost targets).
type MeasureBenchmark struct {
	ID              string    `json:"id" yaml:"id" mapstructure:"id"`
	Title           string    `json:"title" yaml:"title" mapstructure:"title"`
	Category        Category  `json:"category" yaml:"category" mapstructure:"category"`
	Direction       Direction `json:"direction" yaml:"direction" mapstructure:"direction"`
	Tiers           []Tier    `json:"tiers" yaml:"tiers" mapstructure:"tiers"`
	PointsAvailable float64   `json:"points_available" yaml:"points_available" mapstructure:"points_available"`
	HasDenominator  bool      `json:"has_denominator" yaml:"has_denominator" mapstructure:"has_denominator"`
	MinDenominator  float64   `json:"min_denominator" yaml:"min_denominator" mapstructure:"min_denominator"`
	MinValue        float64   `json:"min_value" yaml:"min_value" mapstructure:"min_value"`
	RiskAdjusted    bool      `json:"risk_adjusted" yaml:"risk_adjusted" mapstructure:"risk_adjusted"`
	FloorEpsilon    float64   `json:"floor_epsilon" yaml:"floor_epsilon" mapstructure:"floor_epsilon"`
	RowThresholds   bool      `json:"row_thresholds" yaml:"row_thresholds" mapstructure:"row_thresholds"`
	LessComment     string    `json:"less_comment" yaml:"less_comment" mapstructure:"less_comment"`
	MoreComment     string    `json:"more_comment" yaml:"more_comment" mapstructure:"more_comment"`
}

// MaxPoints returns the points available for a fully eligible hospital.
func (b MeasureBenchmark) MaxPoints() float64 {
	if b.PointsAvailable > 0 {
		return b.PointsAvailable
	}
	if len(b.Tiers) == 0 {
		return 0
	}
	return b.Tiers[0].Points
}

// OverallBenchmark holds the overall score cut points for one hospital size.
type OverallBenchmark struct {
	Max float64 `json:"max" yaml:"max" mapstructure:"max"`
	Mid float64 `json:"mid" yaml:"mid" mapstructure:"mid"`
	Min float64 `json:"min" yaml:"min" mapstructure:"min"`
}

// BenchmarkSet is the full scoring configuration injected into the core.
type BenchmarkSet struct {
	Version  string                            `json:"version" yaml:"version"`
	Measures []MeasureBenchmark                `json:"measures" yaml:"measures"`
	Overall  map[HospitalSize]OverallBenchmark `json:"overall" yaml:"overall"`
}

// Lookup returns the benchmark for a measure ID.
func (s BenchmarkSet) Lookup(id string) (MeasureBenchmark, bool) {
	for _, b := range s.Measures {
		if b.ID == id {
			return b, true
		}
	}
	return MeasureBenchmark{}, false
}

// ByCategory returns the benchmarks of a category in configured order.
func (s BenchmarkSet) ByCategory(c Category) []MeasureBenchmark {
	var out []MeasureBenchmark
	for _, b := range s.Measures {
		if b.Category == c {
			out = append(out, b)
		}
	}
	return out
}
