package engine

import (
	"fmt"

	"aqdash/internal/models"
)

// buildStore dictionary-encodes recs the same way the loader does.
func buildStore(recs []models.Record) *ColumnStore {
	countries := newDictBuilder(len(recs))
	pollutants := newDictBuilder(len(recs))
	processes := newDictBuilder(len(recs))
	store := &ColumnStore{HasProcess: true, Details: map[string]*DictColumn{}}
	for _, r := range recs {
		store.Years = append(store.Years, int32(r.Year))
		countries.add(r.Country)
		pollutants.add(r.AirPollutant)
		proc := r.AggregationProcess
		if proc == "" {
			proc = UnreportedProcess
		}
		processes.add(proc)
	}
	store.Countries = countries.col
	store.Pollutants = pollutants.col
	store.Processes = processes.col
	store.Stats = LoadStats{RowsRead: len(recs), RowsKept: len(recs)}
	return store
}

func rec(country string, year int, pollutant, process string) models.Record {
	return models.Record{Country: country, Year: year, AirPollutant: pollutant, AggregationProcess: process}
}

// repeat returns n copies of r.
func repeat(r models.Record, n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func countryName(i int) string {
	return fmt.Sprintf("Country-%02d", i)
}

func allOf(store *ColumnStore) Subset {
	rows := make([]int, store.Len())
	for i := range rows {
		rows[i] = i
	}
	return Subset{store: store, rows: rows}
}

func years(lo, hi int) *YearRange {
	return &YearRange{Low: lo, High: hi}
}
