package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ThresholdSeparator separates hospital-specific thresholds in flat file columns.
const ThresholdSeparator = ";"

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Finite returns v, or 0 when v is NaN or infinite.
// Upstream extracts use NaN for missing cells.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Classify returns the payout tier an overall score falls into.
func (b OverallBenchmark) Classify(score float64) PayoutTier {
	switch {
	case score >= b.Max:
		return MaxPayout
	case score >= b.Mid:
		return MidPayout
	case score >= b.Min:
		return MinPayout
	default:
		return ZeroPayout
	}
}

// ParseHospitalSize normalizes free-form size labels such as "very small" or "LARGE".
// Unknown labels are returned as given so callers can report them.
func ParseHospitalSize(s string) HospitalSize {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "large":
		return LargeHospital
	case "medium":
		return MediumHospital
	case "small":
		return SmallHospital
	case "very-small", "verysmall":
		return VerySmallHospital
	case "specialty":
		return SpecialtyHospital
	default:
		return HospitalSize(strings.TrimSpace(s))
	}
}

// CheckTierOrder verifies that points strictly decrease and thresholds get
// strictly looser in the given direction.
func CheckTierOrder(dir Direction, tiers []Tier) error {
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if cur.Points >= prev.Points {
			return fmt.Errorf("tier %d points %.4g not below %.4g", i+1, cur.Points, prev.Points)
		}
		if dir == LowerIsBetter && cur.Threshold <= prev.Threshold {
			return fmt.Errorf("tier %d threshold %.4g not above %.4g", i+1, cur.Threshold, prev.Threshold)
		}
		if dir == HigherIsBetter && cur.Threshold >= prev.Threshold {
			return fmt.Errorf("tier %d threshold %.4g not below %.4g", i+1, cur.Threshold, prev.Threshold)
		}
	}
	return nil
}

// ParseThresholds reads a separated list such as "1200;1350.5;1500".
// An empty string yields no thresholds.
func ParseThresholds(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ThresholdSeparator)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatThresholds is the inverse of ParseThresholds.
func FormatThresholds(ts []float64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatFloat(t, 'f', -1, 64)
	}
	return strings.Join(parts, ThresholdSeparator)
}

// MeasureKey is the lookup key for a measure ID. Matching is case-insensitive.
func MeasureKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
