package engine

import (
	"sort"
	"strings"

	"aqdash/internal/models"
)

// Column names of the source extract.
const (
	ColCountry             = "Country"
	ColYear                = "Year"
	ColAirPollutant        = "Air Pollutant"
	ColPollutantDesc       = "Air Pollutant Description"
	ColAggregationProcess  = "Data Aggregation Process"
	ColSpatialResolution   = "Spatial Resolution Description"
	ColTemporalResolution  = "Temporal Resolution"
	ColMeteorology         = "Meteorology"
	ColChemistry           = "Chemistry"
	ColEmissions           = "Emissions"
	ColTopography          = "Topography"
	ColAssessmentType      = "Assessment Type"
	ColAdministrationLevel = "Administration Level"
	ColModelApplication    = "Model Application"
)

// descriptiveColumns are carried through unchanged; no aggregation reads them.
var descriptiveColumns = []string{
	ColPollutantDesc,
	ColSpatialResolution,
	ColTemporalResolution,
	ColMeteorology,
	ColChemistry,
	ColEmissions,
	ColTopography,
	ColAssessmentType,
	ColAdministrationLevel,
	ColModelApplication,
}

// DictColumn is a dictionary encoded string column: IDs[row] indexes Dict.
type DictColumn struct {
	IDs  []int32
	Dict []string
}

func (c *DictColumn) Value(row int) string {
	return c.Dict[c.IDs[row]]
}

// ColumnStore holds the cleaned dataset in Struct-of-Arrays format.
// It is read-only once LoadColumnar returns it.
type ColumnStore struct {
	Years []int32

	Countries  DictColumn
	Pollutants DictColumn
	Processes  DictColumn

	// HasProcess is false when the extract has no Data Aggregation Process column.
	HasProcess bool

	// Descriptive columns, keyed by source column name. Absent columns are nil.
	Details map[string]*DictColumn

	Stats LoadStats
}

// LoadStats reports what the cleaning step did.
type LoadStats struct {
	RowsRead    int `json:"rows_read"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
}

// Len returns the number of records.
func (cs *ColumnStore) Len() int {
	return len(cs.Years)
}

// Record materialises row i as a value copy.
func (cs *ColumnStore) Record(i int) models.Record {
	r := models.Record{
		Country:      cs.Countries.Value(i),
		Year:         int(cs.Years[i]),
		AirPollutant: cs.Pollutants.Value(i),
	}
	if cs.HasProcess {
		r.AggregationProcess = cs.Processes.Value(i)
	}
	detail := func(name string) string {
		if c := cs.Details[name]; c != nil {
			return c.Value(i)
		}
		return ""
	}
	r.PollutantDescription = detail(ColPollutantDesc)
	r.SpatialResolution = detail(ColSpatialResolution)
	r.TemporalResolution = detail(ColTemporalResolution)
	r.Meteorology = detail(ColMeteorology)
	r.Chemistry = detail(ColChemistry)
	r.Emissions = detail(ColEmissions)
	r.Topography = detail(ColTopography)
	r.AssessmentType = detail(ColAssessmentType)
	r.AdministrationLevel = detail(ColAdministrationLevel)
	r.ModelApplication = detail(ColModelApplication)
	return r
}

// YearBounds returns the smallest and largest year. ok is false on an empty store.
func (cs *ColumnStore) YearBounds() (lo, hi int, ok bool) {
	if len(cs.Years) == 0 {
		return 0, 0, false
	}
	lo, hi = int(cs.Years[0]), int(cs.Years[0])
	for _, y := range cs.Years[1:] {
		if int(y) < lo {
			lo = int(y)
		}
		if int(y) > hi {
			hi = int(y)
		}
	}
	return lo, hi, true
}

// Options lists the selectable values and the selection a new session opens with.
func (cs *ColumnStore) Options() models.Options {
	pollutants := sortedCopy(cs.Pollutants.Dict)
	countries := append([]string{AllCountries}, sortedCopy(cs.Countries.Dict)...)

	opts := models.Options{
		Pollutants: pollutants,
		Countries:  countries,
		Default: models.Selection{
			Pollutants: []string{},
			Country:    AllCountries,
			K:          DefaultK,
		},
	}
	if lo, hi, ok := cs.YearBounds(); ok {
		opts.YearMin, opts.YearMax = lo, hi
		opts.Default.YearLow = max(lo, hi-10)
		opts.Default.YearHigh = hi
	}
	if len(pollutants) > 0 {
		opts.Default.Pollutants = pollutants[:1]
	}
	return opts
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// dictBuilder interns strings into a DictColumn.
type dictBuilder struct {
	col   DictColumn
	index map[string]int32
}

func newDictBuilder(capacity int) *dictBuilder {
	return &dictBuilder{
		col:   DictColumn{IDs: make([]int32, 0, capacity)},
		index: make(map[string]int32),
	}
}

func (b *dictBuilder) add(s string) {
	id, ok := b.index[s]
	if !ok {
		id = int32(len(b.col.Dict))
		s = strings.Clone(s) // detach from the reader's buffer
		b.col.Dict = append(b.col.Dict, s)
		b.index[s] = id
	}
	b.col.IDs = append(b.col.IDs, id)
}
