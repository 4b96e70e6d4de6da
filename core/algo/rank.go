// Package algo has the ordering and reduction steps applied to scenario lists.
package algo

import (
	"sort"

	"github.com/huangsam/qbmatrix/schema"
)

// SortScenarios orders scenarios by total points ascending. Ties keep the
// order of an earlier stable pass on total change, so within each points
// bucket the cheapest scenario comes first.
func SortScenarios(scenarios []schema.ScenarioCombination) {
	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].TotalChange < scenarios[j].TotalChange
	})
	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].TotalPoints < scenarios[j].TotalPoints
	})
}

// DedupByPoints walks scenarios sorted by SortScenarios and keeps one only
// when its total points strictly exceed the last kept one.
func DedupByPoints(scenarios []schema.ScenarioCombination) []schema.ScenarioCombination {
	out := make([]schema.ScenarioCombination, 0, len(scenarios))
	for _, s := range scenarios {
		if len(out) > 0 && s.TotalPoints <= out[len(out)-1].TotalPoints {
			continue
		}
		out = append(out, s)
	}
	return out
}

// LimitScenarios returns the last limit scenarios, which are the highest
// scoring ones. A non-positive limit keeps everything.
func LimitScenarios(scenarios []schema.ScenarioCombination, limit int) []schema.ScenarioCombination {
	if limit <= 0 || len(scenarios) <= limit {
		return scenarios
	}
	return scenarios[len(scenarios)-limit:]
}
