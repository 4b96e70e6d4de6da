package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/qbmatrix/schema"
)

// Fixed comments used when a measure needs no change or takes no part in scoring.
const (
	NoChangeComment     = "No Change"
	CurrentScoreComment = "Current Score"
	NotScoredComment    = "Not Scored"
)

// describeOutcome renders the human-readable change behind one tier outcome,
// e.g. "3 fewer MA Readmissions" or "Increase Quality Bundle Star Rating by 0.26".
func describeOutcome(m schema.Measure, o schema.TierOutcome) string {
	if !m.Eligible() {
		return NotScoredComment
	}
	if m.HasDenominator {
		return countComment(o.Count, m.LessComment, m.MoreComment)
	}
	if o.PointDelta == 0 {
		return CurrentScoreComment
	}
	verb := "Increase"
	if o.ValueDelta < 0 {
		verb = "Decrease"
	}
	return fmt.Sprintf("%s %s by %.2f", verb, m.Title, math.Abs(o.ValueDelta))
}

func countComment(count int, less, more string) string {
	switch {
	case count > 0:
		return fmt.Sprintf("%d %s", count, more)
	case count < 0:
		return fmt.Sprintf("%d %s", -count, less)
	default:
		return NoChangeComment
	}
}

// SummarizeScenario joins the comments of every scored measure in a scenario.
func SummarizeScenario(s schema.ScenarioCombination) string {
	parts := make([]string, 0, len(s.Deltas))
	for _, d := range s.Deltas {
		if d.Comment == NotScoredComment || d.Comment == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", d.MeasureID, d.Comment))
	}
	if len(parts) == 0 {
		return NotScoredComment
	}
	return strings.Join(parts, "; ")
}
