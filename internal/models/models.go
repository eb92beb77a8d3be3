package models

// View states shared by every derived dataset.
const (
	StatusOK                   = "ok"
	StatusNoData               = "no_data"
	StatusFieldUnavailable     = "field_unavailable"
	StatusInsufficientData     = "insufficient_data"
	StatusInsufficientForK     = "insufficient_countries_for_k"
	ExplanationAdjustFilters   = "adjust filters"
	ExplanationTooFewCountries = "at least 2 countries are needed to segment"
)

// Record is one row of the cleaned dataset. Values are copies; the store
// itself is never mutated through a Record.
type Record struct {
	Country              string `json:"country"`
	Year                 int    `json:"year"`
	AirPollutant         string `json:"air_pollutant"`
	PollutantDescription string `json:"air_pollutant_description,omitempty"`
	AggregationProcess   string `json:"data_aggregation_process,omitempty"`
	SpatialResolution    string `json:"spatial_resolution_description,omitempty"`
	TemporalResolution   string `json:"temporal_resolution,omitempty"`
	Meteorology          string `json:"meteorology,omitempty"`
	Chemistry            string `json:"chemistry,omitempty"`
	Emissions            string `json:"emissions,omitempty"`
	Topography           string `json:"topography,omitempty"`
	AssessmentType       string `json:"assessment_type,omitempty"`
	AdministrationLevel  string `json:"administration_level,omitempty"`
	ModelApplication     string `json:"model_application,omitempty"`
}

// Views is the complete, atomically computed result of one filter change.
type Views struct {
	KPIs         KPIs         `json:"kpis"`
	Geo          GeoView      `json:"geo"`
	Ranking      RankingView  `json:"ranking"`
	Trend        TrendView    `json:"trend"`
	Process      ProcessView  `json:"process"`
	Treemap      TreemapView  `json:"treemap"`
	Segmentation Segmentation `json:"segmentation"`
}

type KPIs struct {
	ModelCount           int `json:"model_count"`
	DistinctCountryCount int `json:"distinct_country_count"`
	DistinctPollutants   int `json:"distinct_pollutant_count"`
}

// GeoView maps country name to record count. Countries without records are
// absent rather than zero.
type GeoView struct {
	Status string         `json:"status"`
	Counts map[string]int `json:"counts"`
}

type CountryCount struct {
	Country    string `json:"country"`
	ModelCount int    `json:"model_count"`
}

type RankingView struct {
	Status string         `json:"status"`
	Rows   []CountryCount `json:"rows"`
}

type TrendPoint struct {
	Year         int    `json:"year"`
	AirPollutant string `json:"air_pollutant"`
	ModelCount   int    `json:"model_count"`
}

type TrendView struct {
	Status string       `json:"status"`
	Points []TrendPoint `json:"points"`
}

type ProcessRow struct {
	Country      string `json:"country"`
	ProcessGroup string `json:"process_group"`
	Count        int    `json:"count"`
}

type ProcessView struct {
	Status    string       `json:"status"`
	Countries []string     `json:"countries"`
	Processes []string     `json:"processes"`
	Rows      []ProcessRow `json:"rows"`
}

type TreemapNode struct {
	AirPollutant string `json:"air_pollutant"`
	Country      string `json:"country"`
	Count        int    `json:"count"`
}

type TreemapView struct {
	Status string        `json:"status"`
	Nodes  []TreemapNode `json:"nodes"`
}

// CountryAggregate is the per-country input to segmentation.
type CountryAggregate struct {
	Country        string `json:"country"`
	ModelCount     int    `json:"model_count"`
	PollutantCount int    `json:"pollutant_count"`
}

type SegmentAssignment struct {
	CountryAggregate
	Score   float64 `json:"score"`
	Segment string  `json:"segment"`
	Rank    int     `json:"rank"`
}

type SegmentSummary struct {
	Label       string  `json:"label"`
	Rank        int     `json:"rank"`
	Countries   int     `json:"countries"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description"`
}

type Segmentation struct {
	Status      string              `json:"status"`
	Explanation string              `json:"explanation,omitempty"`
	RequestedK  int                 `json:"requested_k"`
	ProducedK   int                 `json:"produced_k"`
	Countries   int                 `json:"countries"`
	Assignments []SegmentAssignment `json:"assignments"`
	Segments    []SegmentSummary    `json:"segments"`
}

// Options describes the selectable values of the loaded dataset and the
// selection a fresh session starts from.
type Options struct {
	Pollutants []string  `json:"pollutants"`
	Countries  []string  `json:"countries"`
	YearMin    int       `json:"year_min"`
	YearMax    int       `json:"year_max"`
	Default    Selection `json:"default"`
}

type Selection struct {
	Pollutants []string `json:"pollutants"`
	YearLow    int      `json:"year_low"`
	YearHigh   int      `json:"year_high"`
	Country    string   `json:"country"`
	K          int      `json:"k"`
}
