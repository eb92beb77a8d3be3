package engine

import (
	"fmt"
	"math"
	"sort"

	"aqdash/internal/models"
)

// Segmentation parameters. The weights favour volume over diversity.
const (
	MinK     = 2
	MaxK     = 6
	DefaultK = 3

	modelWeight     = 0.7
	pollutantWeight = 0.3
)

const (
	descLow    = "low intensity: few models, little diversity"
	descMiddle = "intermediate intensity"
	descHigh   = "high intensity: many models, high diversity"
)

// ValidK reports whether k is an allowed number of segments.
func ValidK(k int) bool {
	return k >= MinK && k <= MaxK
}

// CountryAggregates returns, per country present in the subset, its record
// count and number of distinct pollutants, ordered by country name.
func CountryAggregates(sub Subset) []models.CountryAggregate {
	if sub.Len() == 0 {
		return []models.CountryAggregate{}
	}
	cs := sub.store
	numPols := len(cs.Pollutants.Dict)
	modelCounts := make([]int, len(cs.Countries.Dict))
	seen := make([]bool, len(cs.Countries.Dict)*numPols)
	polCounts := make([]int, len(cs.Countries.Dict))
	for _, row := range sub.rows {
		cid := int(cs.Countries.IDs[row])
		modelCounts[cid]++
		if idx := cid*numPols + int(cs.Pollutants.IDs[row]); !seen[idx] {
			seen[idx] = true
			polCounts[cid]++
		}
	}

	out := make([]models.CountryAggregate, 0, len(modelCounts))
	for cid, n := range modelCounts {
		if n > 0 {
			out = append(out, models.CountryAggregate{
				Country:        cs.Countries.Dict[cid],
				ModelCount:     n,
				PollutantCount: polCounts[cid],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// Scores computes 0.7*models/max(models) + 0.3*pollutants/max(pollutants).
// A metric whose maximum is zero contributes zero.
func Scores(aggs []models.CountryAggregate) []float64 {
	maxM, maxP := 0, 0
	for _, a := range aggs {
		maxM = max(maxM, a.ModelCount)
		maxP = max(maxP, a.PollutantCount)
	}
	scores := make([]float64, len(aggs))
	for i, a := range aggs {
		var m, p float64
		if maxM > 0 {
			m = float64(a.ModelCount) / float64(maxM)
		}
		if maxP > 0 {
			p = float64(a.PollutantCount) / float64(maxP)
		}
		scores[i] = modelWeight*m + pollutantWeight*p
	}
	return scores
}

// QuantileEdges returns the k+1 equal-frequency bin edges of values using
// linear interpolation between order statistics, with duplicates dropped.
func QuantileEdges(values []float64, k int) []float64 {
	if len(values) == 0 || k < 1 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	edges := make([]float64, 0, k+1)
	for j := 0; j <= k; j++ {
		pos := float64(j) / float64(k) * float64(n-1)
		lo := int(math.Floor(pos))
		hi := min(lo+1, n-1)
		e := sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
		if j == k {
			e = sorted[n-1]
		}
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}

// binOf places v into the right-closed bin (edges[i], edges[i+1]]; the first
// bin also includes its lower edge. With fewer than two edges there is a
// single bin.
func binOf(edges []float64, v float64) int {
	if len(edges) < 2 {
		return 0
	}
	i := sort.SearchFloat64s(edges, v)
	if i == 0 {
		return 0
	}
	return min(i-1, len(edges)-2)
}

// Segment scores every country in the subset and splits them into at most k
// equal-frequency tiers of the score. Coinciding quantile edges and empty
// bins reduce the number of tiers produced; this is reported, not an error.
func Segment(sub Subset, k int) models.Segmentation {
	seg := models.Segmentation{
		Status:      models.StatusNoData,
		RequestedK:  k,
		Assignments: []models.SegmentAssignment{},
		Segments:    []models.SegmentSummary{},
	}
	if !ValidK(k) {
		seg.Explanation = models.ExplanationAdjustFilters
		return seg
	}

	aggs := CountryAggregates(sub)
	seg.Countries = len(aggs)
	switch {
	case len(aggs) < MinK:
		seg.Status = models.StatusInsufficientData
		seg.Explanation = models.ExplanationTooFewCountries
		return seg
	case len(aggs) < k:
		seg.Status = models.StatusInsufficientForK
		seg.Explanation = fmt.Sprintf("only %d countries available for k = %d", len(aggs), k)
		return seg
	}

	scores := Scores(aggs)
	edges := QuantileEdges(scores, k)

	bins := make([]int, len(aggs))
	counts := make([]int, max(len(edges)-1, 1))
	for i, s := range scores {
		bins[i] = binOf(edges, s)
		counts[bins[i]]++
	}

	// Non-empty bins become ranks 1..m in ascending score order.
	rankOf := make([]int, len(counts))
	m := 0
	for b, n := range counts {
		if n > 0 {
			m++
			rankOf[b] = m
		}
	}

	for i, a := range aggs {
		r := rankOf[bins[i]]
		seg.Assignments = append(seg.Assignments, models.SegmentAssignment{
			CountryAggregate: a,
			Score:            scores[i],
			Segment:          segmentLabel(r),
			Rank:             r,
		})
	}
	sort.Slice(seg.Assignments, func(i, j int) bool {
		a, b := seg.Assignments[i], seg.Assignments[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Country < b.Country
	})

	for b, n := range counts {
		if n == 0 {
			continue
		}
		r := rankOf[b]
		seg.Segments = append(seg.Segments, models.SegmentSummary{
			Label:       segmentLabel(r),
			Rank:        r,
			Countries:   n,
			Percentage:  math.Round(1000*float64(n)/float64(len(aggs))) / 10,
			Description: describeTier(r, m),
		})
	}

	seg.Status = models.StatusOK
	seg.ProducedK = m
	return seg
}

func segmentLabel(rank int) string {
	return fmt.Sprintf("Segment %d", rank)
}

func describeTier(rank, of int) string {
	switch rank {
	case 1:
		return descLow
	case of:
		return descHigh
	default:
		return descMiddle
	}
}
