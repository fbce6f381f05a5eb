package analysis

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/jmalen/pondflux/internal/flux"
	"github.com/jmalen/pondflux/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func denseSeries(t *testing.T, pond string, year int) []models.DailyFlux {
	t.Helper()
	var raw []models.DailyFlux
	for d := 0; d < 122; d++ {
		raw = append(raw, models.DailyFlux{
			Date: date(year, time.June, 1).AddDate(0, 0, d),
			Pond: pond,
			Flux: models.Value(float64(d + 1)),
		})
	}
	res, err := flux.Expand(raw, []string{pond}, []int{year}, flux.DefaultSeason)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return flux.Aggregate(res.Rows)
}

func TestAttachMedianCenterLeftPreserving(t *testing.T) {
	daily := denseSeries(t, "A", 2016)
	idx := IndexRolling(daily)

	polys := []models.SurveyPolygon{
		// Mid-season flight with a complete window.
		{FlightDate: date(2016, time.July, 15), Pond: "A", Polygon: models.PondDepression, AreaM2: models.Value(100)},
		// Flight on a day whose center window runs past the season end.
		{FlightDate: date(2016, time.September, 29), Pond: "A", Polygon: models.PondDepression, AreaM2: models.Value(90)},
		// Pond with no flux series at all.
		{FlightDate: date(2016, time.July, 15), Pond: "B", Polygon: models.PondDepression, AreaM2: models.Value(80)},
	}

	before := len(polys)
	matched := AttachMedianCenter(polys, idx)

	if len(polys) != before {
		t.Fatalf("join changed row count: %d -> %d", before, len(polys))
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}
	if !polys[0].Median8dCenter.Valid {
		t.Error("mid-season row did not receive a median")
	}
	if polys[1].Median8dCenter.Valid {
		t.Error("season-end row received a median from an incomplete window")
	}
	if polys[2].Median8dCenter.Valid {
		t.Error("unmatched pond received a median")
	}
}

func TestAttachMedianCenterValue(t *testing.T) {
	daily := denseSeries(t, "A", 2016)
	idx := IndexRolling(daily)

	// July 15 is day 45 of the season; the series value equals the day
	// ordinal, so the center median is ordinal + 0.5.
	polys := []models.SurveyPolygon{
		{FlightDate: date(2016, time.July, 15), Pond: "A", Polygon: models.PondDepression},
	}
	AttachMedianCenter(polys, idx)
	want := 45.5
	if got := polys[0].Median8dCenter; !got.Valid || math.Abs(got.Float64-want) > 1e-9 {
		t.Errorf("Median8dCenter = %+v, want %v", got, want)
	}
}

func TestAttachQuadAreas(t *testing.T) {
	polys := []models.SurveyPolygon{
		// Quad flights for pond A, 2016, depression polygons.
		{FlightDate: date(2016, time.June, 20), Pond: "A", UAS: models.Quadcopter, Polygon: models.PondDepression, AreaM2: models.Value(100)},
		{FlightDate: date(2016, time.July, 10), Pond: "A", UAS: models.Quadcopter, Polygon: models.PondDepression, AreaM2: models.Value(120)},
		{FlightDate: date(2016, time.July, 20), Pond: "A", UAS: models.Quadcopter, Polygon: models.PondDepression, AreaM2: models.Value(140)},
		// Water polygon must not leak into the depression mean.
		{FlightDate: date(2016, time.July, 10), Pond: "A", UAS: models.Quadcopter, Polygon: models.Water, AreaM2: models.Value(999)},
		// Fixed-Wing rows to enrich.
		{FlightDate: date(2016, time.August, 1), Pond: "A", UAS: models.FixedWing, Polygon: models.PondDepression, AreaM2: models.Value(110)},
		{FlightDate: date(2014, time.August, 1), Pond: "A", UAS: models.FixedWing, Polygon: models.PondDepression, AreaM2: models.Value(115)},
	}
	before := len(polys)

	matched := AttachQuadAreas(polys)

	if len(polys) != before {
		t.Fatalf("join changed row count: %d -> %d", before, len(polys))
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}

	fw2016 := polys[4]
	if !fw2016.QuadMeanAreaSeason.Valid || math.Abs(fw2016.QuadMeanAreaSeason.Float64-120) > 1e-9 {
		t.Errorf("season mean = %+v, want 120", fw2016.QuadMeanAreaSeason)
	}
	if !fw2016.QuadMeanAreaJuly.Valid || math.Abs(fw2016.QuadMeanAreaJuly.Float64-130) > 1e-9 {
		t.Errorf("July mean = %+v, want 130", fw2016.QuadMeanAreaJuly)
	}

	// 2014 had no quadcopter flights: null enrichment, not zero, row kept.
	fw2014 := polys[5]
	if fw2014.QuadMeanAreaSeason.Valid || fw2014.QuadMeanAreaJuly.Valid {
		t.Errorf("2014 row enriched from empty scope: %+v %+v",
			fw2014.QuadMeanAreaSeason, fw2014.QuadMeanAreaJuly)
	}
}

func TestTwoLevelAreaMediansOrder(t *testing.T) {
	// Three seasons with per-season medians 10, 20, 1000; wildly different
	// sampling effort per season. The across-year median of medians must be
	// 20, which a flattened single pass would not produce.
	var polys []models.SurveyPolygon
	add := func(year int, areas ...float64) {
		for i, a := range areas {
			polys = append(polys, models.SurveyPolygon{
				FlightDate: date(year, time.July, 1+i),
				Pond:       "A",
				UAS:        models.Quadcopter,
				Polygon:    models.PondDepression,
				AreaM2:     models.Value(a),
			})
		}
	}
	add(2016, 10)
	add(2017, 20)
	add(2018, 999, 1000, 1001, 1002, 1003, 1004, 1005)

	meds := TwoLevelAreaMedians(polys,
		func(p models.SurveyPolygon) (string, bool) { return p.Pond, true },
		func(p models.SurveyPolygon) sql.NullFloat64 { return p.AreaM2 })

	if len(meds) != 1 {
		t.Fatalf("len(meds) = %d, want 1", len(meds))
	}
	if meds[0].Years != 3 {
		t.Errorf("Years = %d, want 3", meds[0].Years)
	}
	if meds[0].Median != 20 {
		t.Errorf("median of medians = %v, want 20", meds[0].Median)
	}
}

func TestCompareReference(t *testing.T) {
	polys := []models.SurveyPolygon{
		{RefMedian8d: models.Value(4.125), Median8dCenter: models.Value(4.125)},
		{RefMedian8d: models.Value(4.125), Median8dCenter: models.Value(4.1252)}, // within 3-decimal tolerance
		{RefMedian8d: models.Value(4.125), Median8dCenter: models.Value(4.2)},    // out of tolerance
		{RefMedian8d: models.Value(1.0)},                                         // reference but no recomputed value
		{Median8dCenter: models.Value(2.0)},                                      // recomputed but no reference
	}

	rt := CompareReference(polys)
	if rt.Matched != 3 {
		t.Errorf("Matched = %d, want 3", rt.Matched)
	}
	if rt.Within != 2 {
		t.Errorf("Within = %d, want 2", rt.Within)
	}
	if rt.RefOnly != 1 {
		t.Errorf("RefOnly = %d, want 1", rt.RefOnly)
	}
	if math.Abs(rt.MaxAbsDiff-0.075) > 1e-9 {
		t.Errorf("MaxAbsDiff = %v, want 0.075", rt.MaxAbsDiff)
	}
}

func TestRunRoundTripOnSyntheticSeason(t *testing.T) {
	daily := denseSeries(t, "A", 2016)
	idx := IndexRolling(daily)

	// Reference column computed the same way the pipeline recomputes it.
	polys := []models.SurveyPolygon{
		{FlightDate: date(2016, time.July, 15), Pond: "A", UAS: models.Quadcopter,
			Polygon: models.PondDepression, PondType: 1,
			AreaM2: models.Value(100), RefMedian8d: models.Value(45.5)},
		{FlightDate: date(2016, time.August, 2), Pond: "A", UAS: models.Quadcopter,
			Polygon: models.PondDepression, PondType: 1,
			AreaM2: models.Value(130), RefMedian8d: models.Value(63.5)},
	}
	AttachMedianCenter(polys, idx)
	AttachQuadAreas(polys)

	res := Run(polys, daily, idx)
	if res.RoundTrip.Matched != 2 {
		t.Fatalf("Matched = %d, want 2", res.RoundTrip.Matched)
	}
	if res.RoundTrip.Within != 2 {
		t.Errorf("Within = %d, want 2: max diff %v", res.RoundTrip.Within, res.RoundTrip.MaxAbsDiff)
	}
	if len(res.VariantTaus) != 6 {
		t.Errorf("len(VariantTaus) = %d, want 6", len(res.VariantTaus))
	}
}
