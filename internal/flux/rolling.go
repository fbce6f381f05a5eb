package flux

import (
	"database/sql"
	"math"
	"sort"

	"github.com/jmalen/pondflux/internal/models"
)

// WindowLen is the fixed rolling window length in days.
const WindowLen = 8

// Window start offsets relative to the current day. The center alignment is
// deliberately asymmetric (3 days before, the day itself, 4 days after);
// this matches the published analysis and must not be "corrected" to ±4.
const (
	offsetRight  = -(WindowLen - 1) // [d-7 .. d]
	offsetCenter = -3               // [d-3 .. d+4]
	offsetLeft   = 0                // [d .. d+7]
)

// Aggregate fills the six rolling-window columns on a dense daily table
// produced by Expand. Windows never cross a pond-year partition boundary,
// and a windowed value is defined only when all 8 days in its window carry
// a non-null flux; any gap in the window yields null.
//
// Rolling sums are rounded to 3 decimal places to match the measurement
// precision of the input; medians are left unrounded.
func Aggregate(rows []models.DailyFlux) []models.DailyFlux {
	out := append([]models.DailyFlux(nil), rows...)

	start := 0
	for i := 1; i <= len(out); i++ {
		if i == len(out) || out[i].PondYearKey() != out[start].PondYearKey() {
			aggregatePartition(out[start:i])
			start = i
		}
	}
	return out
}

func aggregatePartition(part []models.DailyFlux) {
	for i := range part {
		part[i].MedianRight, part[i].SumRight = window(part, i+offsetRight)
		part[i].MedianCenter, part[i].SumCenter = window(part, i+offsetCenter)
		part[i].MedianLeft, part[i].SumLeft = window(part, i+offsetLeft)
	}
}

// window computes the median and sum of the 8-day window starting at index
// lo within one partition. Windows extending outside the partition, or
// containing any null day, are null.
func window(part []models.DailyFlux, lo int) (median, sum sql.NullFloat64) {
	if lo < 0 || lo+WindowLen > len(part) {
		return models.Null(), models.Null()
	}

	vals := make([]float64, 0, WindowLen)
	total := 0.0
	for _, r := range part[lo : lo+WindowLen] {
		if !r.Flux.Valid {
			return models.Null(), models.Null()
		}
		vals = append(vals, r.Flux.Float64)
		total += r.Flux.Float64
	}

	sort.Float64s(vals)
	// Window length is even, so the median is always the average of the
	// two middle order statistics.
	m := (vals[WindowLen/2-1] + vals[WindowLen/2]) / 2

	return models.Value(m), models.Value(round3(total))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
