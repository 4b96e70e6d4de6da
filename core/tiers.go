package core

import (
	"math"

	"github.com/huangsam/qbmatrix/schema"
)

// EnumerateTiers lists every scoring tier a measure could land in, best first,
// ending with the implicit zero tier. Ranks count down to 1 for the zero tier.
// An ineligible measure yields a single degenerate outcome of rank 0.
func EnumerateTiers(m schema.Measure) []schema.TierOutcome {
	if !m.Eligible() || len(m.Tiers) == 0 {
		return []schema.TierOutcome{{}}
	}
	n := len(m.Tiers)
	out := make([]schema.TierOutcome, 0, n+1)
	for i, t := range m.Tiers {
		out = append(out, newOutcome(m, n+1-i, t.Points, t.Threshold))
	}
	return append(out, newOutcome(m, 1, 0, m.FloorThreshold))
}

func newOutcome(m schema.Measure, rank int, points, threshold float64) schema.TierOutcome {
	o := schema.TierOutcome{
		Rank:       rank,
		Points:     points,
		PointDelta: schema.RoundTo(points-m.PointsEarned, 4),
		ValueDelta: threshold - m.CurrentValue,
		Threshold:  threshold,
	}
	switch {
	case m.HasDenominator:
		o.Count = TranslateDelta(o.ValueDelta, o.PointDelta, m.Denominator, m.Risk)
		o.Change = math.Abs(float64(o.Count))
	case o.PointDelta != 0:
		o.Change = math.Abs(o.ValueDelta)
	}
	return o
}
