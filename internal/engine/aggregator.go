package engine

import (
	"sort"

	"aqdash/internal/models"
)

// Display caps of the derived views.
const (
	RankingLimit     = 20
	ProcessCountries = 10
	TopProcesses     = 5
)

// OtherProcesses is the bucket every process outside the top ones is merged into.
const OtherProcesses = "Other processes"

// KPIs counts records, distinct countries and distinct pollutants.
func KPIs(sub Subset) models.KPIs {
	if sub.Len() == 0 {
		return models.KPIs{}
	}
	cs := sub.store
	seenC := make([]bool, len(cs.Countries.Dict))
	seenP := make([]bool, len(cs.Pollutants.Dict))
	k := models.KPIs{ModelCount: sub.Len()}
	for _, row := range sub.rows {
		if cid := cs.Countries.IDs[row]; !seenC[cid] {
			seenC[cid] = true
			k.DistinctCountryCount++
		}
		if pid := cs.Pollutants.IDs[row]; !seenP[pid] {
			seenP[pid] = true
			k.DistinctPollutants++
		}
	}
	return k
}

// countryTotals counts records per country dictionary ID.
func countryTotals(sub Subset) []int {
	totals := make([]int, len(sub.store.Countries.Dict))
	for _, row := range sub.rows {
		totals[sub.store.Countries.IDs[row]]++
	}
	return totals
}

// CountryCounts groups the subset by country. Countries without records are
// not emitted. Order is unspecified; see RankCountries.
func CountryCounts(sub Subset) []models.CountryCount {
	if sub.Len() == 0 {
		return []models.CountryCount{}
	}
	totals := countryTotals(sub)
	out := make([]models.CountryCount, 0, len(totals))
	for cid, n := range totals {
		if n > 0 {
			out = append(out, models.CountryCount{Country: sub.store.Countries.Dict[cid], ModelCount: n})
		}
	}
	return out
}

// RankCountries sorts by ModelCount descending, ties by Country ascending,
// and keeps the first limit entries (limit <= 0 keeps all). The input slice
// is sorted in place.
func RankCountries(rows []models.CountryCount, limit int) []models.CountryCount {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ModelCount != rows[j].ModelCount {
			return rows[i].ModelCount > rows[j].ModelCount
		}
		return rows[i].Country < rows[j].Country
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Geo maps each country present in the subset to its record count.
func Geo(sub Subset) models.GeoView {
	v := models.GeoView{Status: models.StatusNoData, Counts: map[string]int{}}
	for _, c := range CountryCounts(sub) {
		v.Counts[c.Country] = c.ModelCount
	}
	if len(v.Counts) > 0 {
		v.Status = models.StatusOK
	}
	return v
}

// Ranking returns the top countries by record count.
func Ranking(sub Subset) models.RankingView {
	rows := RankCountries(CountryCounts(sub), RankingLimit)
	if len(rows) == 0 {
		return models.RankingView{Status: models.StatusNoData, Rows: rows}
	}
	return models.RankingView{Status: models.StatusOK, Rows: rows}
}

// Trend counts records per (year, pollutant), ordered by year then pollutant.
func Trend(sub Subset) models.TrendView {
	v := models.TrendView{Status: models.StatusNoData, Points: []models.TrendPoint{}}
	if sub.Len() == 0 {
		return v
	}
	cs := sub.store
	minY, maxY := int32(0), int32(0)
	for i, row := range sub.rows {
		y := cs.Years[row]
		if i == 0 || y < minY {
			minY = y
		}
		if i == 0 || y > maxY {
			maxY = y
		}
	}

	// Flattened [year-minY][pollutant] -> (year-minY)*numPols + pollutant
	numPols := len(cs.Pollutants.Dict)
	matrix := make([]int, int(maxY-minY+1)*numPols)
	for _, row := range sub.rows {
		matrix[int(cs.Years[row]-minY)*numPols+int(cs.Pollutants.IDs[row])]++
	}

	for idx, n := range matrix {
		if n == 0 {
			continue
		}
		v.Points = append(v.Points, models.TrendPoint{
			Year:         int(minY) + idx/numPols,
			AirPollutant: cs.Pollutants.Dict[idx%numPols],
			ModelCount:   n,
		})
	}
	sort.Slice(v.Points, func(i, j int) bool {
		a, b := v.Points[i], v.Points[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.AirPollutant < b.AirPollutant
	})
	v.Status = models.StatusOK
	return v
}

// Treemap counts records per (pollutant, country), ordered by pollutant then country.
func Treemap(sub Subset) models.TreemapView {
	v := models.TreemapView{Status: models.StatusNoData, Nodes: []models.TreemapNode{}}
	if sub.Len() == 0 {
		return v
	}
	cs := sub.store
	numCountries := len(cs.Countries.Dict)
	matrix := make([]int, len(cs.Pollutants.Dict)*numCountries)
	for _, row := range sub.rows {
		pid, cid := cs.Pollutants.IDs[row], cs.Countries.IDs[row]
		if cs.Pollutants.Dict[pid] == "" || cs.Countries.Dict[cid] == "" {
			continue
		}
		matrix[int(pid)*numCountries+int(cid)]++
	}

	for idx, n := range matrix {
		if n == 0 {
			continue
		}
		v.Nodes = append(v.Nodes, models.TreemapNode{
			AirPollutant: cs.Pollutants.Dict[idx/numCountries],
			Country:      cs.Countries.Dict[idx%numCountries],
			Count:        n,
		})
	}
	if len(v.Nodes) == 0 {
		return v
	}
	sort.Slice(v.Nodes, func(i, j int) bool {
		a, b := v.Nodes[i], v.Nodes[j]
		if a.AirPollutant != b.AirPollutant {
			return a.AirPollutant < b.AirPollutant
		}
		return a.Country < b.Country
	})
	v.Status = models.StatusOK
	return v
}

// processTotal is a process value with its record count.
type processTotal struct {
	id    int
	name  string
	count int
}

// topProcesses orders processes by count descending, ties by name
// ascending, and returns the first n.
func topProcesses(totals []processTotal, n int) []processTotal {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].count != totals[j].count {
			return totals[i].count > totals[j].count
		}
		return totals[i].name < totals[j].name
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// Process builds the per-country stacked composition by aggregation
// process, restricted to the busiest countries. The most used processes keep
// their label and the rest are merged into OtherProcesses.
func Process(sub Subset) models.ProcessView {
	v := models.ProcessView{
		Status:    models.StatusNoData,
		Countries: []string{},
		Processes: []string{},
		Rows:      []models.ProcessRow{},
	}
	if sub.store != nil && !sub.store.HasProcess {
		v.Status = models.StatusFieldUnavailable
		return v
	}
	if sub.Len() == 0 {
		return v
	}
	cs := sub.store

	// 1. Flattened [country][process] counts
	numProcs := len(cs.Processes.Dict)
	matrix := make([]int, len(cs.Countries.Dict)*numProcs)
	for _, row := range sub.rows {
		matrix[int(cs.Countries.IDs[row])*numProcs+int(cs.Processes.IDs[row])]++
	}

	// 2. Busiest countries
	top := RankCountries(CountryCounts(sub), ProcessCountries)
	countryIDs := make([]int, len(top))
	for i, c := range top {
		v.Countries = append(v.Countries, c.Country)
		countryIDs[i] = dictID(cs.Countries.Dict, c.Country)
	}

	// 3. Process totals within those countries
	totals := make([]processTotal, 0, numProcs)
	for pid, name := range cs.Processes.Dict {
		n := 0
		for _, cid := range countryIDs {
			n += matrix[cid*numProcs+pid]
		}
		if n > 0 {
			totals = append(totals, processTotal{id: pid, name: name, count: n})
		}
	}
	kept := topProcesses(totals, TopProcesses)

	// 4. Relabel: group index per process ID, len(kept) is the other bucket
	group := make([]int, numProcs)
	for pid := range group {
		group[pid] = len(kept)
	}
	for gi, p := range kept {
		group[p.id] = gi
		v.Processes = append(v.Processes, p.name)
	}

	// 5. Re-aggregate per (country, group)
	otherUsed := false
	for _, cid := range countryIDs {
		sums := make([]int, len(kept)+1)
		for pid := 0; pid < numProcs; pid++ {
			sums[group[pid]] += matrix[cid*numProcs+pid]
		}
		for gi, n := range sums {
			if n == 0 {
				continue
			}
			label := OtherProcesses
			if gi < len(kept) {
				label = kept[gi].name
			} else {
				otherUsed = true
			}
			v.Rows = append(v.Rows, models.ProcessRow{
				Country:      cs.Countries.Dict[cid],
				ProcessGroup: label,
				Count:        n,
			})
		}
	}
	if otherUsed {
		v.Processes = append(v.Processes, OtherProcesses)
	}
	v.Status = models.StatusOK
	return v
}

func dictID(dict []string, s string) int {
	for i, d := range dict {
		if d == s {
			return i
		}
	}
	return -1
}
