package engine

import "aqdash/internal/models"

// AllCountries is the country selection that disables the country filter.
const AllCountries = "ALL"

// YearRange is an inclusive [Low, High] interval.
type YearRange struct {
	Low  int
	High int
}

func (r YearRange) Contains(y int) bool {
	return y >= r.Low && y <= r.High
}

// Criteria selects the records every view is derived from.
type Criteria struct {
	Pollutants []string
	Years      *YearRange
	Country    string
}

// Valid reports whether the criteria can be filtered on. Invalid criteria
// short-circuit to the empty result set instead of being filtered.
func (c Criteria) Valid() bool {
	return len(c.Pollutants) > 0 && c.Years != nil && c.Years.Low <= c.Years.High
}

func (c Criteria) allCountries() bool {
	return c.Country == "" || c.Country == AllCountries
}

// Subset is a filtered view over a ColumnStore: a list of row indices into
// the parent. No record data is copied.
type Subset struct {
	store *ColumnStore
	rows  []int
}

func (s Subset) Len() int {
	return len(s.rows)
}

// Rows returns the row indices of the subset. Callers must not modify it.
func (s Subset) Rows() []int {
	return s.rows
}

func (s Subset) Store() *ColumnStore {
	return s.store
}

// Slice returns the rows [i, j) of the subset.
func (s Subset) Slice(i, j int) Subset {
	return Subset{store: s.store, rows: s.rows[i:j]}
}

// Records materialises the subset as value copies.
func (s Subset) Records() []models.Record {
	out := make([]models.Record, len(s.rows))
	for i, row := range s.rows {
		out[i] = s.store.Record(row)
	}
	return out
}

// Filter keeps a record iff its pollutant is selected, its year is within
// the range and, unless every country is selected, its country matches.
// Invalid criteria yield an empty subset.
func Filter(store *ColumnStore, c Criteria) Subset {
	out := Subset{store: store, rows: []int{}}
	if store == nil || !c.Valid() {
		return out
	}

	// Resolve selections to dictionary IDs once; the hot loop compares ints.
	polAllowed := make([]bool, len(store.Pollutants.Dict))
	matched := false
	wanted := make(map[string]struct{}, len(c.Pollutants))
	for _, p := range c.Pollutants {
		wanted[p] = struct{}{}
	}
	for id, p := range store.Pollutants.Dict {
		if _, ok := wanted[p]; ok {
			polAllowed[id] = true
			matched = true
		}
	}
	if !matched {
		return out
	}

	countryID := int32(-1)
	if !c.allCountries() {
		for id, name := range store.Countries.Dict {
			if name == c.Country {
				countryID = int32(id)
				break
			}
		}
		if countryID < 0 {
			return out
		}
	}

	years := store.Years
	pids := store.Pollutants.IDs
	cids := store.Countries.IDs
	for i := range years {
		if !polAllowed[pids[i]] || !c.Years.Contains(int(years[i])) {
			continue
		}
		if countryID >= 0 && cids[i] != countryID {
			continue
		}
		out.rows = append(out.rows, i)
	}
	return out
}
