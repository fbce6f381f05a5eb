package flux

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmalen/pondflux/internal/models"
)

// SeasonWindow is the fixed field-season window, inclusive on both ends.
// Both boundaries are month-day pairs applied to every season year.
type SeasonWindow struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// DefaultSeason is the ice-free sampling window used by the field campaign.
var DefaultSeason = SeasonWindow{
	StartMonth: time.June,
	StartDay:   1,
	EndMonth:   time.September,
	EndDay:     30,
}

// Bounds returns the first and last day of the window in the given year.
func (w SeasonWindow) Bounds(year int) (time.Time, time.Time) {
	start := time.Date(year, w.StartMonth, w.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, w.EndMonth, w.EndDay, 0, 0, 0, 0, time.UTC)
	return start, end
}

// Contains reports whether t falls inside the window of its own year.
func (w SeasonWindow) Contains(t time.Time) bool {
	start, end := w.Bounds(t.Year())
	d := models.Day(t)
	return !d.Before(start) && !d.After(end)
}

// Days returns the number of days in the window (122 for June 1 - Sep 30).
func (w SeasonWindow) Days(year int) int {
	start, end := w.Bounds(year)
	return int(end.Sub(start).Hours()/24) + 1
}

// ExpandResult is the dense daily table plus counts of raw records that did
// not land on the grid. Out-of-window records are reported, never silently
// dropped; duplicate (date, pond) records keep the first value seen.
type ExpandResult struct {
	Rows        []models.DailyFlux
	RawMatched  int
	OutOfWindow int
	Duplicates  int
}

// Expand builds the complete daily calendar: one row per (pond, day, season)
// for every pond in the fixed set and every season year, flux populated only
// where a raw measurement exists. Rows are explicitly sorted ascending by
// date within each pond-year partition, which the rolling aggregation relies
// on.
//
// A raw record naming a pond outside the fixed set is an error. A raw record
// dated outside every season window is counted in OutOfWindow.
func Expand(raw []models.DailyFlux, ponds []string, years []int, win SeasonWindow) (*ExpandResult, error) {
	known := make(map[string]bool, len(ponds))
	for _, p := range ponds {
		known[p] = true
	}
	yearSet := make(map[int]bool, len(years))
	for _, y := range years {
		yearSet[y] = true
	}

	res := &ExpandResult{}
	byKey := make(map[models.DatePond]float64)
	for _, r := range raw {
		if !known[r.Pond] {
			return nil, fmt.Errorf("flux: unknown pond %q on %s", r.Pond, r.Date.Format("2006-01-02"))
		}
		if !yearSet[r.Date.Year()] || !win.Contains(r.Date) {
			res.OutOfWindow++
			continue
		}
		if !r.Flux.Valid {
			continue
		}
		key := r.DatePondKey()
		if _, dup := byKey[key]; dup {
			res.Duplicates++
			continue
		}
		byKey[key] = r.Flux.Float64
		res.RawMatched++
	}

	sortedPonds := append([]string(nil), ponds...)
	sort.Strings(sortedPonds)
	sortedYears := append([]int(nil), years...)
	sort.Ints(sortedYears)

	for _, pond := range sortedPonds {
		for _, year := range sortedYears {
			start, end := win.Bounds(year)
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				row := models.DailyFlux{Date: d, Pond: pond}
				if v, ok := byKey[models.DatePond{Date: d, Pond: pond}]; ok {
					row.Flux = models.Value(v)
				}
				res.Rows = append(res.Rows, row)
			}
		}
	}

	// The generation loop already emits dates in order, but downstream
	// windowing depends on the ordering invariant, so enforce it rather
	// than assume it.
	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.Pond != b.Pond {
			return a.Pond < b.Pond
		}
		return a.Date.Before(b.Date)
	})

	return res, nil
}
