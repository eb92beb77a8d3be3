package engine

import "aqdash/internal/models"

// Params is one complete dashboard request.
type Params struct {
	Criteria
	// K is the requested number of segments; 0 means not provided.
	K int
}

// Degenerate reports whether p lacks a pollutant selection, a year range or
// a usable k. Such requests produce EmptyViews.
func (p Params) Degenerate() bool {
	return !p.Criteria.Valid() || !ValidK(p.K)
}

// Compute filters the store and derives every view from the same subset.
// It is a pure function of (store, p): it never mutates the store and holds
// no state between calls.
func Compute(store *ColumnStore, p Params) models.Views {
	if store == nil || p.Degenerate() {
		return EmptyViews(p.K)
	}
	sub := Filter(store, p.Criteria)
	return models.Views{
		KPIs:         KPIs(sub),
		Geo:          Geo(sub),
		Ranking:      Ranking(sub),
		Trend:        Trend(sub),
		Process:      Process(sub),
		Treemap:      Treemap(sub),
		Segmentation: Segment(sub, p.K),
	}
}

// EmptyViews is the explicit "no data" result set.
func EmptyViews(k int) models.Views {
	empty := Subset{rows: []int{}}
	return models.Views{
		KPIs:    KPIs(empty),
		Geo:     Geo(empty),
		Ranking: Ranking(empty),
		Trend:   Trend(empty),
		Process: Process(empty),
		Treemap: Treemap(empty),
		Segmentation: models.Segmentation{
			Status:      models.StatusNoData,
			Explanation: models.ExplanationAdjustFilters,
			RequestedK:  k,
			Assignments: []models.SegmentAssignment{},
			Segments:    []models.SegmentSummary{},
		},
	}
}
