package schema

// MeasureRow is one long-format input row: a hospital's observed data for one measure.
// Absent numeric values are zero.
type MeasureRow struct {
	HospitalID        string    `json:"hospital_id" csv:"hospital_id"`
	HospitalName      string    `json:"hospital_name" csv:"hospital_name"`
	HospitalSize      string    `json:"hospital_size" csv:"hospital_size"`
	Measure           string    `json:"measure" csv:"measure"`
	Value             float64   `json:"value" csv:"value"`
	Numerator         float64   `json:"numerator" csv:"numerator"`
	Denominator       float64   `json:"denominator" csv:"denominator"`
	ExpectedNumerator float64   `json:"expected" csv:"expected"`
	MarketExpected    float64   `json:"market_expected" csv:"market_expected"`
	Thresholds        []float64 `json:"thresholds,omitempty" csv:"thresholds"` // Hospital-specific tier thresholds, best first
}

// HospitalInput is the per-hospital snapshot handed to the matrix builder.
// Measures is keyed by MeasureKey of the measure ID.
type HospitalInput struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Size     HospitalSize          `json:"size"`
	Measures map[string]MeasureRow `json:"measures"`
}
