package analysis

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/jmalen/pondflux/internal/models"
	"github.com/jmalen/pondflux/internal/stats"
)

// refTolerance is the round-trip comparison tolerance against the reference
// Median8dC_BubFlux column, half a unit in the third decimal place.
const refTolerance = 5e-4

// VariantTau is the area-flux rank correlation for one of the six rolling
// window variants.
type VariantTau struct {
	Variant string
	Result  stats.KendallResult
}

// RoundTrip compares the recomputed center-aligned median against the
// reference column shipped in the survey table.
type RoundTrip struct {
	Matched    int // rows where both reference and recomputed are non-null
	Within     int // of those, rows agreeing within tolerance
	RefOnly    int // reference present but no recomputed value
	MaxAbsDiff float64
}

// Results is the full set of statistical findings for the manuscript.
type Results struct {
	DepressionAreaByPondType stats.KruskalResult
	EdgeAreaByPolygonType    stats.KruskalResult
	EdgeAreaByPondType       stats.KruskalResult

	AreaFluxTau     map[models.PolygonType]stats.KendallResult
	VariantTaus     []VariantTau
	FWSeasonTau     stats.KendallResult
	FWJulyTau       stats.KendallResult
	PrecipWaterTau  stats.KendallResult

	AreaByPondTypeSummary []models.GroupSummary
	MonthlyFlux           []models.GroupSummary
	PondAreaMedians       []PondMedian

	RoundTrip RoundTrip
}

// Run executes the fixed analysis question set over the enriched survey
// table and the aggregated daily table. All statistics are pure functions of
// their inputs; nothing is retained between calls.
func Run(polys []models.SurveyPolygon, daily []models.DailyFlux, idx RollingIndex) *Results {
	res := &Results{AreaFluxTau: make(map[models.PolygonType]stats.KendallResult)}

	depressionByPondType := func(p models.SurveyPolygon) (string, bool) {
		return fmt.Sprintf("type %d", p.PondType), p.Polygon == models.PondDepression
	}
	area := func(p models.SurveyPolygon) sql.NullFloat64 { return p.AreaM2 }
	edgeArea := func(p models.SurveyPolygon) sql.NullFloat64 { return p.EdgeArea }

	// Q1: depression area across pond types.
	res.DepressionAreaByPondType = stats.KruskalWallis(GroupSurveys(polys, depressionByPondType, area))
	res.AreaByPondTypeSummary = SummarizeSurveys(polys, depressionByPondType, area)

	// Q2: edge:area ratio across polygon types and across pond types.
	res.EdgeAreaByPolygonType = stats.KruskalWallis(GroupSurveys(polys,
		func(p models.SurveyPolygon) (string, bool) { return string(p.Polygon), true }, edgeArea))
	res.EdgeAreaByPondType = stats.KruskalWallis(GroupSurveys(polys, depressionByPondType, edgeArea))

	// Q3: area vs center-aligned rolling median flux, per polygon type.
	for _, poly := range []models.PolygonType{models.PondDepression, models.Water} {
		xs, ys := pairedColumns(polys, poly, area, func(p models.SurveyPolygon) sql.NullFloat64 {
			return p.Median8dCenter
		})
		res.AreaFluxTau[poly] = stats.Kendall(xs, ys)
	}

	// Q4: the six window variants side by side, depression polygons.
	res.VariantTaus = variantCorrelations(polys, idx)

	// Q5: instrument comparability, Fixed-Wing area vs quad means.
	res.FWSeasonTau = fixedWingTau(polys, func(p models.SurveyPolygon) sql.NullFloat64 {
		return p.QuadMeanAreaSeason
	})
	res.FWJulyTau = fixedWingTau(polys, func(p models.SurveyPolygon) sql.NullFloat64 {
		return p.QuadMeanAreaJuly
	})

	// Q6: two-level area aggregation, depression polygons.
	res.PondAreaMedians = TwoLevelAreaMedians(polys,
		func(p models.SurveyPolygon) (string, bool) { return p.Pond, p.Polygon == models.PondDepression },
		area)

	// Q7: monthly flux summaries.
	res.MonthlyFlux = MonthlyFluxSummaries(daily)

	// Q8: pre-flight precipitation vs standing-water area.
	xs, ys := pairedColumns(polys, models.Water,
		func(p models.SurveyPolygon) sql.NullFloat64 { return p.Precip8d }, area)
	res.PrecipWaterTau = stats.Kendall(xs, ys)

	// Q9: regression check against the reference column.
	res.RoundTrip = CompareReference(polys)

	return res
}

// pairedColumns extracts complete (x, y) pairs for one polygon type,
// dropping rows where either side is null.
func pairedColumns(polys []models.SurveyPolygon, poly models.PolygonType, xCol, yCol SurveyValue) (xs, ys []float64) {
	for _, p := range polys {
		if p.Polygon != poly {
			continue
		}
		x, y := xCol(p), yCol(p)
		if x.Valid && y.Valid {
			xs = append(xs, x.Float64)
			ys = append(ys, y.Float64)
		}
	}
	return xs, ys
}

// variantCorrelations pairs depression polygon area with each of the six
// rolling variants at the flight date. The comparison is the basis for
// selecting the center-aligned median as the main-analysis flux metric.
func variantCorrelations(polys []models.SurveyPolygon, idx RollingIndex) []VariantTau {
	variants := []struct {
		name string
		col  func(models.DailyFlux) sql.NullFloat64
	}{
		{"median_right", func(d models.DailyFlux) sql.NullFloat64 { return d.MedianRight }},
		{"median_center", func(d models.DailyFlux) sql.NullFloat64 { return d.MedianCenter }},
		{"median_left", func(d models.DailyFlux) sql.NullFloat64 { return d.MedianLeft }},
		{"sum_right", func(d models.DailyFlux) sql.NullFloat64 { return d.SumRight }},
		{"sum_center", func(d models.DailyFlux) sql.NullFloat64 { return d.SumCenter }},
		{"sum_left", func(d models.DailyFlux) sql.NullFloat64 { return d.SumLeft }},
	}

	out := make([]VariantTau, 0, len(variants))
	for _, v := range variants {
		var xs, ys []float64
		for _, p := range polys {
			if p.Polygon != models.PondDepression || !p.AreaM2.Valid {
				continue
			}
			d, ok := idx[p.DatePondKey()]
			if !ok {
				continue
			}
			if val := v.col(d); val.Valid {
				xs = append(xs, p.AreaM2.Float64)
				ys = append(ys, val.Float64)
			}
		}
		out = append(out, VariantTau{Variant: v.name, Result: stats.Kendall(xs, ys)})
	}
	return out
}

// fixedWingTau correlates Fixed-Wing areas against a quad-derived enrichment
// column.
func fixedWingTau(polys []models.SurveyPolygon, col SurveyValue) stats.KendallResult {
	var xs, ys []float64
	for _, p := range polys {
		if p.UAS != models.FixedWing || !p.AreaM2.Valid {
			continue
		}
		if v := col(p); v.Valid {
			xs = append(xs, p.AreaM2.Float64)
			ys = append(ys, v.Float64)
		}
	}
	return stats.Kendall(xs, ys)
}

// CompareReference checks the recomputed center-aligned median against the
// pre-computed Median8dC_BubFlux column, at 3-decimal tolerance.
func CompareReference(polys []models.SurveyPolygon) RoundTrip {
	var rt RoundTrip
	for _, p := range polys {
		if !p.RefMedian8d.Valid {
			continue
		}
		if !p.Median8dCenter.Valid {
			rt.RefOnly++
			continue
		}
		rt.Matched++
		diff := math.Abs(p.RefMedian8d.Float64 - p.Median8dCenter.Float64)
		if diff > rt.MaxAbsDiff {
			rt.MaxAbsDiff = diff
		}
		if diff <= refTolerance {
			rt.Within++
		}
	}
	return rt
}
