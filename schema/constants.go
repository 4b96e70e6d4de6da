package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// Direction says which way a measure improves.
	Direction string

	// Category groups measures that are scored together on one matrix axis.
	Category string

	// PayoutTier is the payout band an overall score falls into.
	PayoutTier string

	// HospitalSize selects the overall payout benchmarks.
	HospitalSize string

	// InputFormat represents the format of the measure input file.
	InputFormat string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	YAMLOut    OutputMode = "yaml"
)

// All input formats supported.
const (
	CSVIn     InputFormat = "csv"
	JSONIn    InputFormat = "json"
	ParquetIn InputFormat = "parquet"
)

// All run history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// Improvement directions.
const (
	HigherIsBetter Direction = "higher"
	LowerIsBetter  Direction = "lower"
)

// Measure categories. Each category is enumerated independently and
// becomes one axis of the scoring grid.
const (
	CQMCategory     Category = "cqm"
	BundleCategory  Category = "bundle"
	EpisodeCategory Category = "episode"
)

// Payout tiers, from worst to best.
const (
	ZeroPayout PayoutTier = "zero"
	MinPayout  PayoutTier = "min"
	MidPayout  PayoutTier = "mid"
	MaxPayout  PayoutTier = "max"
)

// Hospital sizes used by the overall payout benchmarks.
const (
	LargeHospital     HospitalSize = "Large"
	MediumHospital    HospitalSize = "Medium"
	SmallHospital     HospitalSize = "Small"
	VerySmallHospital HospitalSize = "Very-Small"
	SpecialtyHospital HospitalSize = "Specialty"
)

// Enumeration bounds. A measure carries at most MaxConfiguredTiers scoring
// tiers plus the implicit zero floor, and a single category cross product
// may never exceed MaxCombinations entries.
const (
	MaxConfiguredTiers = 5
	MaxTiersPerMeasure = MaxConfiguredTiers + 1
	MaxCombinations    = 1 << 16
)

// AllCategories lists categories in grid order: rows are episodes by bundle, columns are CQM.
var AllCategories = []Category{EpisodeCategory, BundleCategory, CQMCategory}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	YAMLOut:    {},
}

// ValidInputFormats lists all valid input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	CSVIn:     {},
	JSONIn:    {},
	ParquetIn: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidDirections lists all valid improvement directions.
var ValidDirections = map[Direction]struct{}{
	HigherIsBetter: {},
	LowerIsBetter:  {},
}

// ValidHospitalSizes lists all hospital sizes with default overall benchmarks.
var ValidHospitalSizes = map[HospitalSize]struct{}{
	LargeHospital:     {},
	MediumHospital:    {},
	SmallHospital:     {},
	VerySmallHospital: {},
	SpecialtyHospital: {},
}

// ValidCategories lists all valid measure categories.
var ValidCategories = map[Category]struct{}{
	CQMCategory:     {},
	BundleCategory:  {},
	EpisodeCategory: {},
}
