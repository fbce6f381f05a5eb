package stats

import (
	"database/sql"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jmalen/pondflux/internal/models"
)

// Valid drops nulls from a nullable column. Statistics are computed over the
// surviving values; nulls are never treated as zero.
func Valid(vals []sql.NullFloat64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Median is the standard order statistic: the average of the two middle
// values for an even count.
func Median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Summarize computes the descriptive summary of one group. An empty sample
// (after null exclusion) yields an Undefined summary rather than a spurious
// result.
func Summarize(group string, vals []sql.NullFloat64) models.GroupSummary {
	xs := Valid(vals)
	if len(xs) == 0 {
		return models.GroupSummary{Group: group, Undefined: true}
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	return models.GroupSummary{
		Group:  group,
		Count:  len(xs),
		Median: Median(xs),
		Mean:   stat.Mean(xs, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
}
