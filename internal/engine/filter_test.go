package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqdash/internal/models"
)

func filterFixture() *ColumnStore {
	return buildStore([]models.Record{
		rec("Germany", 2014, "NO2", "a"),
		rec("Germany", 2015, "NO2", "a"),
		rec("Germany", 2015, "PM10", "b"),
		rec("France", 2016, "NO2", "a"),
		rec("France", 2018, "O3", "c"),
		rec("Spain", 2015, "NO2", "b"),
	})
}

func TestFilter(t *testing.T) {
	store := filterFixture()

	sub := Filter(store, Criteria{Pollutants: []string{"NO2"}, Years: years(2015, 2016), Country: AllCountries})
	assert.Equal(t, []int{1, 3, 5}, sub.Rows())

	sub = Filter(store, Criteria{Pollutants: []string{"NO2", "PM10"}, Years: years(2015, 2015), Country: "Germany"})
	assert.Equal(t, []int{1, 2}, sub.Rows())

	for _, r := range sub.Records() {
		assert.Equal(t, "Germany", r.Country)
		assert.Equal(t, 2015, r.Year)
	}
}

func TestFilter_EmptyCountryMeansAll(t *testing.T) {
	store := filterFixture()
	sub := Filter(store, Criteria{Pollutants: []string{"NO2"}, Years: years(2000, 2030)})
	assert.Equal(t, 4, sub.Len())
}

func TestFilter_NoMatches(t *testing.T) {
	store := filterFixture()

	cases := map[string]Criteria{
		"unknown pollutant": {Pollutants: []string{"SO2"}, Years: years(2000, 2030)},
		"unknown country":   {Pollutants: []string{"NO2"}, Years: years(2000, 2030), Country: "Narnia"},
		"years outside":     {Pollutants: []string{"NO2"}, Years: years(1990, 1999)},
		"no pollutants":     {Years: years(2000, 2030)},
		"no years":          {Pollutants: []string{"NO2"}},
		"inverted years":    {Pollutants: []string{"NO2"}, Years: years(2016, 2015)},
	}
	for name, c := range cases {
		sub := Filter(store, c)
		require.NotNil(t, sub.Rows(), name)
		assert.Equal(t, 0, sub.Len(), name)
	}
}

func TestFilter_NilStore(t *testing.T) {
	sub := Filter(nil, Criteria{Pollutants: []string{"NO2"}, Years: years(2000, 2030)})
	assert.Equal(t, 0, sub.Len())
}

func TestSubsetSlice(t *testing.T) {
	store := filterFixture()
	sub := allOf(store).Slice(2, 4)
	recs := sub.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "PM10", recs[0].AirPollutant)
	assert.Equal(t, "France", recs[1].Country)
}
