package analysis

import (
	"database/sql"
	"sort"

	"github.com/jmalen/pondflux/internal/models"
	"github.com/jmalen/pondflux/internal/stats"
)

// SurveyLabel selects a grouping label for a survey row; ok=false drops the
// row from the grouping entirely.
type SurveyLabel func(models.SurveyPolygon) (label string, ok bool)

// SurveyValue selects the numeric column to summarize.
type SurveyValue func(models.SurveyPolygon) sql.NullFloat64

// SummarizeSurveys computes one GroupSummary per label over the selected
// column, nulls excluded, rows ordered by label.
func SummarizeSurveys(polys []models.SurveyPolygon, label SurveyLabel, value SurveyValue) []models.GroupSummary {
	grouped := make(map[string][]sql.NullFloat64)
	for _, p := range polys {
		l, ok := label(p)
		if !ok {
			continue
		}
		grouped[l] = append(grouped[l], value(p))
	}

	labels := make([]string, 0, len(grouped))
	for l := range grouped {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]models.GroupSummary, 0, len(labels))
	for _, l := range labels {
		out = append(out, stats.Summarize(l, grouped[l]))
	}
	return out
}

// GroupSurveys collects the selected column per label into test-ready
// groups, nulls excluded, ordered by label.
func GroupSurveys(polys []models.SurveyPolygon, label SurveyLabel, value SurveyValue) []stats.Group {
	grouped := make(map[string][]sql.NullFloat64)
	for _, p := range polys {
		l, ok := label(p)
		if !ok {
			continue
		}
		grouped[l] = append(grouped[l], value(p))
	}

	labels := make([]string, 0, len(grouped))
	for l := range grouped {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]stats.Group, 0, len(labels))
	for _, l := range labels {
		out = append(out, stats.Group{Name: l, Values: stats.Valid(grouped[l])})
	}
	return out
}

// PondMedian is the across-year median of per-pond-year medians for one
// pond.
type PondMedian struct {
	Pond   string
	Years  int // number of pond-years contributing
	Median float64
}

// TwoLevelAreaMedians aggregates in two explicit passes: first the median of
// the selected column within each pond-year, then the median of those
// per-season medians across years for each pond. The passes are never
// flattened into one; season lengths differ, so a single pass would weight
// long seasons and change the statistic.
func TwoLevelAreaMedians(polys []models.SurveyPolygon, label SurveyLabel, value SurveyValue) []PondMedian {
	perSeason := make(map[models.PondYear][]sql.NullFloat64)
	for _, p := range polys {
		if _, ok := label(p); !ok {
			continue
		}
		perSeason[p.PondYearKey()] = append(perSeason[p.PondYearKey()], value(p))
	}

	// Pass 1: within pond-year.
	seasonMedians := make(map[string][]float64)
	for key, vals := range perSeason {
		xs := stats.Valid(vals)
		if len(xs) == 0 {
			continue
		}
		seasonMedians[key.Pond] = append(seasonMedians[key.Pond], stats.Median(xs))
	}

	ponds := make([]string, 0, len(seasonMedians))
	for p := range seasonMedians {
		ponds = append(ponds, p)
	}
	sort.Strings(ponds)

	// Pass 2: across years.
	out := make([]PondMedian, 0, len(ponds))
	for _, p := range ponds {
		out = append(out, PondMedian{
			Pond:   p,
			Years:  len(seasonMedians[p]),
			Median: stats.Median(seasonMedians[p]),
		})
	}
	return out
}

// MonthlyFluxSummaries summarizes raw daily flux by pond and month over the
// dense daily table.
func MonthlyFluxSummaries(daily []models.DailyFlux) []models.GroupSummary {
	grouped := make(map[string][]sql.NullFloat64)
	for _, d := range daily {
		label := d.Pond + " " + d.Date.Month().String()
		grouped[label] = append(grouped[label], d.Flux)
	}

	labels := make([]string, 0, len(grouped))
	for l := range grouped {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]models.GroupSummary, 0, len(labels))
	for _, l := range labels {
		out = append(out, stats.Summarize(l, grouped[l]))
	}
	return out
}
