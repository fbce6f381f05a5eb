package flux

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/jmalen/pondflux/internal/models"
)

// series builds a dense partition for pond "A" starting June 1 of the given
// year. A NaN value marks a missing day.
func series(year int, values []float64) []models.DailyFlux {
	rows := make([]models.DailyFlux, len(values))
	for i, v := range values {
		rows[i] = models.DailyFlux{
			Date: date(year, time.June, 1).AddDate(0, 0, i),
			Pond: "A",
		}
		if !math.IsNaN(v) {
			rows[i].Flux = models.Value(v)
		}
	}
	return rows
}

func checkNull(t *testing.T, name string, day int, got sql.NullFloat64) {
	t.Helper()
	if got.Valid {
		t.Errorf("%s at day %d = %v, want null", name, day+1, got.Float64)
	}
}

func checkValue(t *testing.T, name string, day int, got sql.NullFloat64, want float64) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s at day %d is null, want %v", name, day+1, want)
		return
	}
	if math.Abs(got.Float64-want) > 1e-9 {
		t.Errorf("%s at day %d = %v, want %v", name, day+1, got.Float64, want)
	}
}

func TestAggregateCompleteWindows(t *testing.T) {
	rows := Aggregate(series(2016, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))

	// Right-aligned at day 8 covers days 1-8.
	checkValue(t, "SumRight", 7, rows[7].SumRight, 36)
	checkValue(t, "MedianRight", 7, rows[7].MedianRight, 4.5)

	// Right-aligned at day 10 covers days 3-10.
	checkValue(t, "SumRight", 9, rows[9].SumRight, 52)
	checkValue(t, "MedianRight", 9, rows[9].MedianRight, 6.5)

	// Left-aligned at day 1 covers the same days as right-aligned at day 8.
	checkValue(t, "SumLeft", 0, rows[0].SumLeft, 36)
	checkValue(t, "MedianLeft", 0, rows[0].MedianLeft, 4.5)

	// Right-aligned windows ending before day 8 extend past the partition
	// start and are null.
	for d := 0; d < 7; d++ {
		checkNull(t, "MedianRight", d, rows[d].MedianRight)
		checkNull(t, "SumRight", d, rows[d].SumRight)
	}
}

func TestAggregateCenterAlignmentOffset(t *testing.T) {
	// Each day's value equals its ordinal position, so the center-aligned
	// median at day d is median({d-3 .. d+4}) = d + 0.5.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	rows := Aggregate(series(2016, values))

	for i := range rows {
		d := i + 1
		if d >= 4 && d <= 16 {
			checkValue(t, "MedianCenter", i, rows[i].MedianCenter, float64(d)+0.5)
		} else {
			checkNull(t, "MedianCenter", i, rows[i].MedianCenter)
		}
	}
}

func TestAggregateWindowStrictness(t *testing.T) {
	// 20 days with a single null at day 5: every window covering day 5 is
	// null, every complete window not covering it is defined.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	values[4] = math.NaN()
	rows := Aggregate(series(2016, values))

	for i := range rows {
		d := i + 1

		wantRightNull := d < 8 || d <= 12 // incomplete, or window [d-7..d] covers day 5
		if wantRightNull {
			checkNull(t, "MedianRight", i, rows[i].MedianRight)
		} else if !rows[i].MedianRight.Valid {
			t.Errorf("MedianRight at day %d is null, want defined", d)
		}

		wantCenterNull := d < 4 || d > 16 || d <= 8 // window [d-3..d+4] covers day 5 while d <= 8
		if wantCenterNull {
			checkNull(t, "MedianCenter", i, rows[i].MedianCenter)
		} else if !rows[i].MedianCenter.Valid {
			t.Errorf("MedianCenter at day %d is null, want defined", d)
		}

		wantLeftNull := d > 13 || d <= 5 // incomplete, or window [d..d+7] covers day 5
		if wantLeftNull {
			checkNull(t, "MedianLeft", i, rows[i].MedianLeft)
		} else if !rows[i].MedianLeft.Valid {
			t.Errorf("MedianLeft at day %d is null, want defined", d)
		}
	}
}

func TestAggregateSumMedianConsistency(t *testing.T) {
	values := []float64{2.5, 1.0, 4.0, 3.5, 6.0, 5.5, 8.0, 7.5, 9.0, 10.5}
	rows := Aggregate(series(2016, values))

	// Right-aligned window at day 8 covers all of days 1-8.
	sum := rows[7].SumRight
	med := rows[7].MedianRight
	if !sum.Valid || !med.Valid {
		t.Fatal("complete window produced null")
	}

	mean := sum.Float64 / WindowLen
	wantMean := (2.5 + 1.0 + 4.0 + 3.5 + 6.0 + 5.5 + 8.0 + 7.5) / 8
	if math.Abs(mean-wantMean) > 1e-3 {
		t.Errorf("sum/8 = %v, want %v", mean, wantMean)
	}

	// Median of the even-length window is the average of the 4th and 5th
	// order statistics: sorted window is [1, 2.5, 3.5, 4, 5.5, 6, 7.5, 8].
	if math.Abs(med.Float64-(4.0+5.5)/2) > 1e-9 {
		t.Errorf("MedianRight = %v, want %v", med.Float64, (4.0+5.5)/2)
	}
}

func TestAggregateSumRounding(t *testing.T) {
	values := []float64{0.0001, 0.0001, 0.0001, 0.0001, 0.0001, 0.0001, 0.0001, 0.0004}
	rows := Aggregate(series(2016, values))
	checkValue(t, "SumRight", 7, rows[7].SumRight, 0.001)
}

func TestAggregateDay3NullScenario(t *testing.T) {
	// Pond A, 2016, days 1-10 with day 3 missing. The single gap sits
	// inside every complete 8-day window this short series admits, so all
	// six rolling columns are null at every position:
	//   right:  complete only for d >= 8, and [d-7..d] covers day 3 for d <= 10
	//   center: complete only for 4 <= d <= 6, and [d-3..d+4] covers day 3 there
	//   left:   complete only for d <= 3, and [d..d+7] covers day 3 there
	rows := Aggregate(series(2016, []float64{1, 2, math.NaN(), 4, 5, 6, 7, 8, 9, 10}))

	for i, r := range rows {
		checkNull(t, "MedianRight", i, r.MedianRight)
		checkNull(t, "MedianCenter", i, r.MedianCenter)
		checkNull(t, "MedianLeft", i, r.MedianLeft)
		checkNull(t, "SumRight", i, r.SumRight)
		checkNull(t, "SumCenter", i, r.SumCenter)
		checkNull(t, "SumLeft", i, r.SumLeft)
	}
}

func TestAggregateNoCrossPartitionWindows(t *testing.T) {
	a := series(2016, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	b := series(2017, []float64{100, 100, 100, 100, 100, 100, 100, 100})
	rows := Aggregate(append(a, b...))

	// Day 8 of 2017 has a complete right-aligned window entirely inside its
	// own season.
	last := rows[len(rows)-1]
	checkValue(t, "SumRight", 7, last.SumRight, 800)

	// Day 1 of 2017 would only have a right-aligned window by borrowing
	// 2016 days; it must be null.
	first2017 := rows[8]
	if first2017.Date.Year() != 2017 {
		t.Fatalf("partition layout unexpected: %v", first2017.Date)
	}
	checkNull(t, "MedianRight", 0, first2017.MedianRight)

	// Day 8 of 2016 must not see 2017 values in a left/center window.
	last2016 := rows[7]
	checkValue(t, "SumLeft", 0, rows[0].SumLeft, 36)
	checkNull(t, "MedianCenter", 7, last2016.MedianCenter)
}
