package analysis

import (
	"time"

	"github.com/jmalen/pondflux/internal/models"
)

// RollingIndex holds the aggregated daily table keyed for the survey join.
type RollingIndex map[models.DatePond]models.DailyFlux

// IndexRolling builds the (date, pond) lookup over the aggregated daily
// table.
func IndexRolling(daily []models.DailyFlux) RollingIndex {
	idx := make(RollingIndex, len(daily))
	for _, d := range daily {
		idx[d.DatePondKey()] = d
	}
	return idx
}

// AttachMedianCenter left-joins the center-aligned rolling median onto every
// survey row by (flight date, pond). Rows without a match, or whose matched
// day has no complete window, keep a null; the survey table's cardinality
// never changes. Returns the number of rows that received a value.
func AttachMedianCenter(polys []models.SurveyPolygon, idx RollingIndex) int {
	matched := 0
	for i := range polys {
		d, ok := idx[polys[i].DatePondKey()]
		if !ok {
			polys[i].Median8dCenter = models.Null()
			continue
		}
		polys[i].Median8dCenter = d.MedianCenter
		if d.MedianCenter.Valid {
			matched++
		}
	}
	return matched
}

// quadScope accumulates quadcopter areas for one (pond-year, polygon type)
// group across the two candidate aggregation scopes.
type quadScope struct {
	seasonSum   float64
	seasonCount int
	julySum     float64
	julyCount   int
}

type quadKey struct {
	models.PondYear
	polygon models.PolygonType
}

// AttachQuadAreas enriches Fixed-Wing rows with the mean area measured by
// the quadcopter over the same pond-year, for the whole season and for July
// only. Means are taken within the row's own polygon type so depression and
// water areas never mix. A pond-year with no quadcopter observations in a
// scope yields null, not zero. Returns the number of Fixed-Wing rows that
// received at least one value.
func AttachQuadAreas(polys []models.SurveyPolygon) int {
	groups := make(map[quadKey]*quadScope)
	for _, p := range polys {
		if p.UAS != models.Quadcopter || !p.AreaM2.Valid {
			continue
		}
		key := quadKey{PondYear: p.PondYearKey(), polygon: p.Polygon}
		g := groups[key]
		if g == nil {
			g = &quadScope{}
			groups[key] = g
		}
		g.seasonSum += p.AreaM2.Float64
		g.seasonCount++
		if p.FlightDate.Month() == time.July {
			g.julySum += p.AreaM2.Float64
			g.julyCount++
		}
	}

	matched := 0
	for i := range polys {
		if polys[i].UAS != models.FixedWing {
			continue
		}
		polys[i].QuadMeanAreaSeason = models.Null()
		polys[i].QuadMeanAreaJuly = models.Null()

		g := groups[quadKey{PondYear: polys[i].PondYearKey(), polygon: polys[i].Polygon}]
		if g == nil {
			continue
		}
		if g.seasonCount > 0 {
			polys[i].QuadMeanAreaSeason = models.Value(g.seasonSum / float64(g.seasonCount))
		}
		if g.julyCount > 0 {
			polys[i].QuadMeanAreaJuly = models.Value(g.julySum / float64(g.julyCount))
		}
		if g.seasonCount > 0 || g.julyCount > 0 {
			matched++
		}
	}
	return matched
}
