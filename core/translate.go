package core

import (
	"math"

	"github.com/huangsam/qbmatrix/schema"
)

// integerTolerance is how close a projected count must be to a whole number
// before it is treated as that number. 0.05-0.08 is -0.030000000000000006,
// which would otherwise floor to one event too many on a denominator of 100.
const integerTolerance = 1e-9

// TranslateDelta converts a rate delta into the whole number of numerator
// events needed to move by that much on the given denominator.
//
// Negative deltas round down and positive deltas round up, so the magnitude
// never understates the real requirement. The one exception is a raw count
// within 1e-9 of a whole number, which is snapped to it before rounding, so
// -3.0000000001 reports 3 rather than 4. A tier with no point gap needs no
// change and always translates to 0. For risk-adjusted measures the delta is
// first rescaled from the market scale back to the hospital's observed scale.
func TranslateDelta(valueDelta, pointDelta, denominator float64, risk *schema.RiskAdjustment) int {
	if pointDelta == 0 || denominator <= 0 {
		return 0
	}
	scaled := schema.Finite(valueDelta)
	if risk != nil && risk.MarketExpected != 0 {
		scaled = risk.Expected * scaled / risk.MarketExpected
	}
	raw := scaled * denominator
	if r := math.Round(raw); math.Abs(raw-r) < integerTolerance {
		return int(r)
	}
	if raw < 0 {
		return int(math.Floor(raw))
	}
	return int(math.Ceil(raw))
}
