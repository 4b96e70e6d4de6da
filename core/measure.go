package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/qbmatrix/schema"
)

// thresholdTolerance absorbs floating noise when a rate sits exactly on a threshold.
const thresholdTolerance = 1e-9

// ErrInvalidThresholds is returned when hospital-specific thresholds do not
// line up with the scoring tiers of their benchmark.
var ErrInvalidThresholds = errors.New("invalid row thresholds")

// NewMeasure scores one input row against its benchmark.
//
// Missing or non-finite inputs never fail: they make the measure ineligible,
// which leaves it with zero points available and zero points earned. The only
// error is a malformed set of row thresholds.
func NewMeasure(b schema.MeasureBenchmark, row schema.MeasureRow) (schema.Measure, error) {
	m := ineligibleMeasure(b)

	tiers, err := resolveTiers(b, row)
	if err != nil {
		return m, err
	}

	num := schema.Finite(row.Numerator)
	den := schema.Finite(row.Denominator)
	m.Numerator = num
	m.Denominator = den

	value := schema.Finite(row.Value)
	if b.HasDenominator {
		if den <= 0 {
			return m, nil
		}
		value = num / den
		if b.RiskAdjusted {
			value, m.Risk = riskAdjust(value, row.ExpectedNumerator/den, row.MarketExpected)
		}
	}
	m.CurrentValue = schema.Finite(value)

	switch {
	case len(tiers) == 0:
		return m, nil
	case den < b.MinDenominator:
		return m, nil
	case !b.HasDenominator && m.CurrentValue < b.MinValue:
		return m, nil
	}

	m.Tiers = tiers
	m.FloorThreshold = floorThreshold(m.Direction, tiers, b.FloorEpsilon)
	m.PointsAvailable = b.MaxPoints()
	m.PointsEarned = earnedPoints(m.Direction, tiers, m.CurrentValue)
	return m, nil
}

// ineligibleMeasure carries the descriptive fields of b with no points.
func ineligibleMeasure(b schema.MeasureBenchmark) schema.Measure {
	return schema.Measure{
		ID:             b.ID,
		Title:          b.Title,
		Category:       b.Category,
		Direction:      b.Direction,
		HasDenominator: b.HasDenominator,
		LessComment:    b.LessComment,
		MoreComment:    b.MoreComment,
	}
}

// resolveTiers returns the benchmark tiers, with thresholds taken from the
// row when the benchmark asks for it. A row without thresholds yields no tiers.
func resolveTiers(b schema.MeasureBenchmark, row schema.MeasureRow) ([]schema.Tier, error) {
	if !b.RowThresholds {
		return b.Tiers, nil
	}
	if len(row.Thresholds) == 0 {
		return nil, nil
	}
	if len(row.Thresholds) != len(b.Tiers) {
		return nil, fmt.Errorf("%w: %s has %d thresholds for %d tiers", ErrInvalidThresholds, b.ID, len(row.Thresholds), len(b.Tiers))
	}
	tiers := make([]schema.Tier, len(b.Tiers))
	for i, t := range b.Tiers {
		tiers[i] = schema.Tier{Points: t.Points, Threshold: schema.Finite(row.Thresholds[i])}
	}
	if err := schema.CheckTierOrder(b.Direction, tiers); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidThresholds, b.ID, err)
	}
	return tiers, nil
}

// riskAdjust rescales a raw rate by the hospital's expected rate against the market.
// Without both factors the raw rate is scored as is.
func riskAdjust(rate, expected, market float64) (float64, *schema.RiskAdjustment) {
	expected = schema.Finite(expected)
	market = schema.Finite(market)
	if expected <= 0 || market <= 0 {
		return rate, nil
	}
	return rate / expected * market, &schema.RiskAdjustment{Expected: expected, MarketExpected: market}
}

// satisfies reports whether value meets threshold in the direction of improvement.
func satisfies(dir schema.Direction, value, threshold float64) bool {
	if dir == schema.LowerIsBetter {
		return value <= threshold+thresholdTolerance
	}
	return value >= threshold-thresholdTolerance
}

// earnedPoints returns the points of the best tier whose threshold is met.
func earnedPoints(dir schema.Direction, tiers []schema.Tier, value float64) float64 {
	for _, t := range tiers {
		if satisfies(dir, value, t.Threshold) {
			return t.Points
		}
	}
	return 0
}

// floorThreshold is the threshold of the implicit zero tier, just past the loosest tier.
func floorThreshold(dir schema.Direction, tiers []schema.Tier, epsilon float64) float64 {
	last := tiers[len(tiers)-1].Threshold
	if dir == schema.LowerIsBetter {
		return last + epsilon
	}
	return last - epsilon
}
