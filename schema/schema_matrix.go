package schema

// CategoryResult is the deduplicated scenario list for one category.
type CategoryResult struct {
	Category        Category              `json:"category"`
	PointsAvailable float64               `json:"points_available"`
	PointsEarned    float64               `json:"points_earned"`
	Eligible        bool                  `json:"eligible"`
	RawCombinations int                   `json:"raw_combinations"`
	Measures        []MeasureTiers        `json:"measures"`
	Scenarios       []ScenarioCombination `json:"scenarios"`
}

// GridCell is one overall score in the scoring grid.
type GridCell struct {
	CQMPoints float64    `json:"cqm_points"`
	Score     float64    `json:"score"`
	Payout    PayoutTier `json:"payout"`
	Current   bool       `json:"current"`
}

// GridRow holds every CQM column for one episode and bundle pairing.
type GridRow struct {
	EpisodePoints  float64    `json:"episode_points"`
	EpisodeComment string     `json:"episode_comment"`
	BundlePoints   float64    `json:"bundle_points"`
	BundleComment  string     `json:"bundle_comment"`
	Cells          []GridCell `json:"cells"`
}

// ScoreGrid crosses episode and bundle scenarios (rows) with CQM scenarios (columns).
type ScoreGrid struct {
	Benchmark            OverallBenchmark `json:"benchmark"`
	TotalPointsAvailable float64          `json:"total_points_available"`
	Columns              []float64        `json:"columns"`
	Rows                 []GridRow        `json:"rows"`
}

// HospitalMatrix is the complete sensitivity result for one hospital.
type HospitalMatrix struct {
	HospitalID           string           `json:"hospital_id"`
	HospitalName         string           `json:"hospital_name"`
	HospitalSize         HospitalSize     `json:"hospital_size"`
	TotalPointsAvailable float64          `json:"total_points_available"`
	TotalPointsEarned    float64          `json:"total_points_earned"`
	CurrentScore         float64          `json:"current_score"`
	CurrentPayout        PayoutTier       `json:"current_payout"`
	Categories           []CategoryResult `json:"categories"`
	Grid                 ScoreGrid        `json:"grid"`
}

// Category returns the result for one category.
func (m HospitalMatrix) Category(c Category) (CategoryResult, bool) {
	for _, r := range m.Categories {
		if r.Category == c {
			return r, true
		}
	}
	return CategoryResult{}, false
}

// HospitalTiers is the per-measure tier listing for one hospital, without combinations.
type HospitalTiers struct {
	HospitalID   string         `json:"hospital_id"`
	HospitalName string         `json:"hospital_name"`
	Measures     []MeasureTiers `json:"measures"`
}
