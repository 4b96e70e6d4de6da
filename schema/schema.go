// Package schema has models and global constants for all parts of qbmatrix.
package schema

// Tier is one scoring breakpoint: Points are awarded once the measured
// value reaches Threshold in the measure's improvement direction.
type Tier struct {
	Points    float64 `json:"points" yaml:"points" mapstructure:"points"`
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// RiskAdjustment holds the factors used to rescale a rate delta before it is
// projected onto the denominator. Expected is the hospital's expected rate
// and MarketExpected is the market-wide expected rate.
type RiskAdjustment struct {
	Expected       float64 `json:"expected"`
	MarketExpected float64 `json:"market_expected"`
}

// Measure is a single scored category for one hospital, built fresh per run.
type Measure struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Category        Category        `json:"category"`
	Direction       Direction       `json:"direction"`
	CurrentValue    float64         `json:"current_value"`
	Numerator       float64         `json:"numerator"`
	Denominator     float64         `json:"denominator"`
	HasDenominator  bool            `json:"has_denominator"`
	Tiers           []Tier          `json:"tiers"`           // Best first
	FloorThreshold  float64         `json:"floor_threshold"` // Threshold of the implicit zero tier
	PointsAvailable float64         `json:"points_available"`
	PointsEarned    float64         `json:"points_earned"`
	Risk            *RiskAdjustment `json:"risk,omitempty"`
	LessComment     string          `json:"less_comment"` // e.g. "fewer MA Readmissions"
	MoreComment     string          `json:"more_comment"` // e.g. "more MA Readmissions"
}

// Eligible reports whether the measure takes part in sensitivity analysis.
func (m Measure) Eligible() bool {
	return m.PointsAvailable > 0
}

// TierOutcome describes one hypothetical tier for a measure.
// PointDelta is Points minus the points earned today and ValueDelta is the
// tier threshold minus the current value. Count is the whole number of
// numerator events needed to cross the threshold and Change is the magnitude
// used when comparing the cost of scenarios.
type TierOutcome struct {
	Rank       int     `json:"rank"`
	Points     float64 `json:"points"`
	PointDelta float64 `json:"point_delta"`
	ValueDelta float64 `json:"value_delta"`
	Threshold  float64 `json:"threshold"`
	Count      int     `json:"count"`
	Change     float64 `json:"change"`
}

// MeasureTiers pairs a measure with its enumerated tier outcomes.
type MeasureTiers struct {
	Measure  Measure       `json:"measure"`
	Outcomes []TierOutcome `json:"outcomes"`
}

// MeasureDelta is one measure's slot inside a scenario combination, carrying
// everything a renderer needs without further numeric derivation.
type MeasureDelta struct {
	MeasureID       string  `json:"measure_id"`
	Title           string  `json:"title"`
	Rank            int     `json:"rank"`
	Points          float64 `json:"points"`
	Count           int     `json:"count"`
	ValueDelta      float64 `json:"value_delta"`
	TargetNumerator float64 `json:"target_numerator"`
	Denominator     float64 `json:"denominator"`
	Comment         string  `json:"comment"`
}

// ScenarioCombination is one element of the cross product of tier outcomes.
type ScenarioCombination struct {
	TotalPoints float64        `json:"total_points"`
	TotalChange float64        `json:"total_change"`
	Current     bool           `json:"current"`
	Summary     string         `json:"summary,omitempty"` // Set on deduplicated scenarios
	Deltas      []MeasureDelta `json:"deltas"`
}
