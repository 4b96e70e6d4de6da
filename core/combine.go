package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/qbmatrix/core/algo"
	"github.com/huangsam/qbmatrix/schema"
)

// Enumeration errors. Both guard the size of the cross product.
var (
	ErrTooManyTiers        = errors.New("too many tiers for one measure")
	ErrTooManyCombinations = errors.New("too many scenario combinations")
)

// EnumerateCombinations builds every combination of tier outcomes across the
// measures and reduces it to one scenario per achievable points total, the
// cheapest one for that total. The result is ordered by total points ascending.
func EnumerateCombinations(measures []schema.MeasureTiers) ([]schema.ScenarioCombination, error) {
	all, err := CrossProduct(measures)
	if err != nil {
		return nil, err
	}
	return ReduceScenarios(all), nil
}

// ReduceScenarios sorts the raw cross product, keeps the first scenario of
// each points total and summarizes the survivors.
func ReduceScenarios(all []schema.ScenarioCombination) []schema.ScenarioCombination {
	algo.SortScenarios(all)
	kept := algo.DedupByPoints(all)
	for i := range kept {
		kept[i].Summary = SummarizeScenario(kept[i])
	}
	return kept
}

// CombinationCount returns the size of the cross product over measures.
func CombinationCount(measures []schema.MeasureTiers) (int, error) {
	total := 1
	for _, mt := range measures {
		n := max(len(mt.Outcomes), 1)
		if n > schema.MaxTiersPerMeasure {
			return 0, fmt.Errorf("%w: %s has %d, limit is %d", ErrTooManyTiers, mt.Measure.ID, n, schema.MaxTiersPerMeasure)
		}
		if total*n > schema.MaxCombinations {
			return 0, fmt.Errorf("%w: limit is %d", ErrTooManyCombinations, schema.MaxCombinations)
		}
		total *= n
	}
	return total, nil
}

// CrossProduct returns the unreduced cross product in odometer order, with the
// last measure varying fastest. Zero measures give a single empty scenario.
// A scenario whose total equals the points earned today is flagged Current.
func CrossProduct(measures []schema.MeasureTiers) ([]schema.ScenarioCombination, error) {
	total, err := CombinationCount(measures)
	if err != nil {
		return nil, err
	}

	lists := make([][]schema.TierOutcome, len(measures))
	earned := 0.0
	for i, mt := range measures {
		lists[i] = mt.Outcomes
		if len(lists[i]) == 0 {
			lists[i] = []schema.TierOutcome{{}}
		}
		earned += mt.Measure.PointsEarned
	}
	earned = schema.RoundTo(earned, 4)

	out := make([]schema.ScenarioCombination, 0, total)
	idx := make([]int, len(lists))
	for {
		s := combine(measures, lists, idx)
		s.Current = s.TotalPoints == earned
		out = append(out, s)

		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(lists[k]) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return out, nil
}

func combine(measures []schema.MeasureTiers, lists [][]schema.TierOutcome, idx []int) schema.ScenarioCombination {
	s := schema.ScenarioCombination{Deltas: make([]schema.MeasureDelta, len(lists))}
	points, change := 0.0, 0.0
	for i, list := range lists {
		o := list[idx[i]]
		m := measures[i].Measure
		points += o.Points
		change += math.Abs(o.Change)
		s.Deltas[i] = newDelta(m, o)
	}
	s.TotalPoints = schema.RoundTo(points, 4)
	s.TotalChange = schema.RoundTo(change, 6)
	return s
}

func newDelta(m schema.Measure, o schema.TierOutcome) schema.MeasureDelta {
	d := schema.MeasureDelta{
		MeasureID:  m.ID,
		Title:      m.Title,
		Rank:       o.Rank,
		Points:     o.Points,
		Count:      o.Count,
		ValueDelta: o.ValueDelta,
		Comment:    describeOutcome(m, o),
	}
	if m.HasDenominator {
		d.Denominator = m.Denominator
		d.TargetNumerator = m.Numerator + float64(o.Count)
	}
	return d
}
