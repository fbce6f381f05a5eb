package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jmalen/pondflux/internal/analysis"
	"github.com/jmalen/pondflux/internal/figures"
	"github.com/jmalen/pondflux/internal/flux"
	"github.com/jmalen/pondflux/internal/ingest"
	"github.com/jmalen/pondflux/internal/models"
	"github.com/jmalen/pondflux/internal/report"
)

// Config is the explicit run configuration. Everything the pipeline touches
// comes through here; nothing depends on the working directory.
type Config struct {
	SurveyPath string
	FluxPath   string
	OutDir     string

	Ponds  []string
	Years  []int
	Season flux.SeasonWindow

	Figures     bool
	WriteTables bool
}

// DefaultPonds is the fixed pond set of the field campaign. The survey table
// never mentions pond G (no flights), the flux table does.
func DefaultPonds() []string {
	return []string{"A", "B", "C", "D", "E", "F", "G", "H"}
}

// DefaultYears is the fixed set of field seasons.
func DefaultYears() []int {
	return []int{2012, 2013, 2014, 2015, 2016, 2017, 2018}
}

// Run executes the four pipeline stages in order: calendar expansion,
// rolling aggregation, cross-table joins, then summaries and tests, writing
// the statistical report to w.
func Run(cfg Config, w io.Writer) error {
	rawFlux, err := ingest.ReadDailyFlux(cfg.FluxPath)
	if err != nil {
		return err
	}
	log.Printf("pipeline: read %d daily flux records", len(rawFlux))

	polys, err := ingest.ReadSurvey(cfg.SurveyPath)
	if err != nil {
		return err
	}
	log.Printf("pipeline: read %d survey polygons", len(polys))

	known := make(map[string]bool, len(cfg.Ponds))
	for _, p := range cfg.Ponds {
		known[p] = true
	}
	for _, p := range polys {
		if !known[p.Pond] {
			return fmt.Errorf("pipeline: survey names unknown pond %q on %s",
				p.Pond, p.FlightDate.Format("2006-01-02"))
		}
	}

	expanded, err := flux.Expand(rawFlux, cfg.Ponds, cfg.Years, cfg.Season)
	if err != nil {
		return err
	}
	log.Printf("pipeline: expanded to %d daily rows (%d measured, %d out of window, %d duplicates)",
		len(expanded.Rows), expanded.RawMatched, expanded.OutOfWindow, expanded.Duplicates)

	daily := flux.Aggregate(expanded.Rows)
	idx := analysis.IndexRolling(daily)

	matched := analysis.AttachMedianCenter(polys, idx)
	log.Printf("pipeline: joined center median onto %d of %d survey rows", matched, len(polys))

	enriched := analysis.AttachQuadAreas(polys)
	log.Printf("pipeline: enriched %d fixed-wing rows with quadcopter areas", enriched)

	results := analysis.Run(polys, daily, idx)
	report.Print(w, results)

	if cfg.WriteTables {
		if err := report.WriteTables(cfg.OutDir, results); err != nil {
			return err
		}
		log.Printf("pipeline: wrote summary tables to %s", cfg.OutDir)
	}

	if cfg.Figures {
		n, err := renderFigures(cfg.OutDir, polys, daily)
		if err != nil {
			return err
		}
		log.Printf("pipeline: wrote %d figures to %s", n, cfg.OutDir)
	}

	return nil
}

// renderFigures writes the scatter figures and one flux-series figure per
// pond-year that has any measurements.
func renderFigures(dir string, polys []models.SurveyPolygon, daily []models.DailyFlux) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("pipeline: create output dir: %w", err)
	}

	count := 0
	for _, poly := range []models.PolygonType{models.PondDepression, models.Water} {
		var xs, ys []float64
		for _, p := range polys {
			if p.Polygon == poly && p.AreaM2.Valid && p.Median8dCenter.Valid {
				xs = append(xs, p.AreaM2.Float64)
				ys = append(ys, p.Median8dCenter.Float64)
			}
		}
		if len(xs) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("scatter_%s.png", poly))
		err := figures.RenderScatter(path, figures.Scatter{
			Title:  fmt.Sprintf("%s area vs 8-day center median flux", poly),
			XLabel: "area (m2)",
			YLabel: "median flux",
			X:      xs,
			Y:      ys,
		})
		if err != nil {
			return count, err
		}
		count++
	}

	// Partition boundaries follow the sort order guaranteed by Expand.
	start := 0
	for i := 1; i <= len(daily); i++ {
		if i < len(daily) && daily[i].PondYearKey() == daily[start].PondYearKey() {
			continue
		}
		part := daily[start:i]
		start = i

		hasFlux := false
		for _, r := range part {
			if r.Flux.Valid {
				hasFlux = true
				break
			}
		}
		if !hasFlux {
			continue
		}

		key := part[0].PondYearKey()
		path := filepath.Join(dir, fmt.Sprintf("flux_%s_%d.png", key.Pond, key.Year))
		title := fmt.Sprintf("pond %s, %d", key.Pond, key.Year)
		if err := figures.RenderFluxSeries(path, title, part); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
