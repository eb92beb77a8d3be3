package engine

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqdash/internal/models"
)

// dashboardFixture: five countries with NO2 models in 2015 plus noise that the
// default request filters out.
func dashboardFixture() *ColumnStore {
	var recs []models.Record
	for i, n := range []int{1, 2, 3, 4, 5} {
		recs = append(recs, repeat(rec(countryName(i), 2015, "NO2", "Annual mean"), n)...)
	}
	recs = append(recs,
		rec(countryName(0), 2014, "NO2", "Annual mean"),
		rec(countryName(1), 2015, "PM10", "Daily max"),
		rec("Germany", 2020, "O3", ""),
	)
	return buildStore(recs)
}

func defaultParams() Params {
	return Params{
		Criteria: Criteria{Pollutants: []string{"NO2"}, Years: years(2015, 2015), Country: AllCountries},
		K:        3,
	}
}

func TestCompute(t *testing.T) {
	v := Compute(dashboardFixture(), defaultParams())

	assert.Equal(t, models.KPIs{ModelCount: 15, DistinctCountryCount: 5, DistinctPollutants: 1}, v.KPIs)
	assert.Equal(t, models.StatusOK, v.Geo.Status)
	assert.Len(t, v.Geo.Counts, 5)
	assert.Equal(t, models.CountryCount{Country: countryName(4), ModelCount: 5}, v.Ranking.Rows[0])
	assert.Equal(t, []models.TrendPoint{{Year: 2015, AirPollutant: "NO2", ModelCount: 15}}, v.Trend.Points)
	assert.Equal(t, []string{"Annual mean"}, v.Process.Processes)
	assert.Len(t, v.Treemap.Nodes, 5)

	seg := v.Segmentation
	require.Equal(t, models.StatusOK, seg.Status)
	assert.Equal(t, 5, seg.Countries)
	assert.LessOrEqual(t, seg.ProducedK, 3)
	total := 0
	for _, s := range seg.Segments {
		total += s.Countries
	}
	assert.Equal(t, 5, total)
}

func TestCompute_SingleCountry(t *testing.T) {
	p := defaultParams()
	p.Country = countryName(2)
	v := Compute(dashboardFixture(), p)

	assert.Equal(t, 3, v.KPIs.ModelCount)
	assert.Equal(t, map[string]int{countryName(2): 3}, v.Geo.Counts)
	assert.Equal(t, models.StatusInsufficientData, v.Segmentation.Status)
}

func TestCompute_Degenerate(t *testing.T) {
	store := dashboardFixture()
	cases := map[string]func(p *Params){
		"no pollutants":  func(p *Params) { p.Pollutants = nil },
		"no years":       func(p *Params) { p.Years = nil },
		"inverted years": func(p *Params) { p.Years = years(2016, 2015) },
		"k too small":    func(p *Params) { p.K = 0 },
		"k too large":    func(p *Params) { p.K = 7 },
	}
	for name, mutate := range cases {
		p := defaultParams()
		mutate(&p)
		require.True(t, p.Degenerate(), name)

		v := Compute(store, p)
		if diff := cmp.Diff(EmptyViews(p.K), v); diff != "" {
			t.Errorf("%s: unexpected views (-want +got):\n%s", name, diff)
		}
		assert.Equal(t, 0, v.KPIs.ModelCount, name)
		assert.Equal(t, models.StatusNoData, v.Segmentation.Status, name)
		assert.Equal(t, models.ExplanationAdjustFilters, v.Segmentation.Explanation, name)
	}
}

func TestCompute_NoMatchingRows(t *testing.T) {
	p := defaultParams()
	p.Country = "Germany"
	v := Compute(dashboardFixture(), p)

	assert.Equal(t, models.KPIs{}, v.KPIs)
	assert.Equal(t, models.StatusNoData, v.Geo.Status)
	assert.Empty(t, v.Geo.Counts)
	assert.Equal(t, models.StatusNoData, v.Process.Status)
	assert.Equal(t, models.StatusInsufficientData, v.Segmentation.Status)
}

func TestEmptyViews(t *testing.T) {
	v := EmptyViews(3)
	assert.Equal(t, models.KPIs{}, v.KPIs)
	for _, status := range []string{v.Geo.Status, v.Ranking.Status, v.Trend.Status, v.Process.Status, v.Treemap.Status} {
		assert.Equal(t, models.StatusNoData, status)
	}

	// Empty collections encode as [] and {} rather than null.
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null")
}

func TestCompute_Idempotent(t *testing.T) {
	store := dashboardFixture()
	p := defaultParams()

	first := Compute(store, p)
	second := Compute(store, p)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated compute differs (-first +second):\n%s", diff)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, 18, store.Len(), "store is not mutated")
}
