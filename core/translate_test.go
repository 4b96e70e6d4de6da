package core

import (
	"math"
	"testing"

	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
)

// TestTranslateDelta tests conservative rounding of rate deltas onto whole counts.
func TestTranslateDelta(t *testing.T) {
	tests := []struct {
		name        string
		valueDelta  float64
		pointDelta  float64
		denominator float64
		risk        *schema.RiskAdjustment
		expected    int
	}{
		{"exact decrease", -0.03, 2, 100, nil, -3},
		{"float noise on exact decrease", 0.05 - 0.08, 2, 100, nil, -3},
		{"fractional decrease floors", -0.0212, 1, 100, nil, -3},
		{"fractional increase ceils", 0.0101, -2, 100, nil, 2},
		{"tiny increase still one event", 0.0001, 1, 100, nil, 1},
		{"tiny decrease still one event", -0.0001, 1, 100, nil, -1},
		{"no point gap", -0.5, 0, 100, nil, 0},
		{"no denominator", -0.03, 2, 0, nil, 0},
		{"zero delta", 0, 3, 100, nil, 0},
		{"risk adjusted", 0.1292 - 0.14/0.12*0.14, 7, 100, &schema.RiskAdjustment{Expected: 0.12, MarketExpected: 0.14}, -3},
		{"risk without market", -0.03, 2, 100, &schema.RiskAdjustment{Expected: 0.12}, -3},
		{"NaN delta", math.NaN(), 1, 100, nil, 0},
		{"snap below whole count", -0.030000000001, 2, 100, nil, -3},
		{"snap above whole count", 0.020000000001, -1, 100, nil, 2},
		{"just outside snap", -0.0300001, 2, 100, nil, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TranslateDelta(tt.valueDelta, tt.pointDelta, tt.denominator, tt.risk))
		})
	}
}

// TestTranslateDelta_NeverUnderstates sweeps deltas on a denominator and checks magnitudes.
func TestTranslateDelta_NeverUnderstates(t *testing.T) {
	for _, den := range []float64{25, 37, 100, 412, 5000} {
		for step := -200; step <= 200; step++ {
			vd := float64(step) * 0.00137
			count := TranslateDelta(vd, 1, den, nil)
			raw := vd * den
			if math.Abs(raw-math.Round(raw)) < integerTolerance {
				assert.Equal(t, int(math.Round(raw)), count)
				continue
			}
			assert.GreaterOrEqual(t, math.Abs(float64(count)), math.Abs(raw), "den %v delta %v", den, vd)
			assert.Less(t, math.Abs(float64(count))-math.Abs(raw), 1.0, "den %v delta %v", den, vd)
		}
	}
}
