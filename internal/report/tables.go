package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmalen/pondflux/internal/analysis"
	"github.com/jmalen/pondflux/internal/models"
	"github.com/jmalen/pondflux/internal/stats"
)

// WriteTables persists the summary and test tables as flat CSVs in dir.
// This is the only machine-readable output the tool produces, and only on
// request.
func WriteTables(dir string, res *analysis.Results) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create output dir: %w", err)
	}

	if err := writeSummaryTable(filepath.Join(dir, "area_by_pond_type.csv"), res.AreaByPondTypeSummary); err != nil {
		return err
	}
	if err := writeSummaryTable(filepath.Join(dir, "monthly_flux.csv"), res.MonthlyFlux); err != nil {
		return err
	}
	if err := writeVariantTable(filepath.Join(dir, "window_variants.csv"), res.VariantTaus); err != nil {
		return err
	}
	return writePondMedians(filepath.Join(dir, "pond_area_medians.csv"), res.PondAreaMedians)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("report: write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeSummaryTable(path string, summaries []models.GroupSummary) error {
	header := []string{"group", "n", "median", "mean", "min", "max", "q1", "q3"}
	var rows [][]string
	for _, s := range summaries {
		if s.Undefined {
			rows = append(rows, []string{s.Group, "0", "NA", "NA", "NA", "NA", "NA", "NA"})
			continue
		}
		rows = append(rows, []string{
			s.Group,
			strconv.Itoa(s.Count),
			fmtNum(s.Median), fmtNum(s.Mean), fmtNum(s.Min), fmtNum(s.Max), fmtNum(s.Q1), fmtNum(s.Q3),
		})
	}
	return writeCSV(path, header, rows)
}

func writeVariantTable(path string, variants []analysis.VariantTau) error {
	header := []string{"variant", "tau", "n", "p"}
	var rows [][]string
	for _, v := range variants {
		if v.Result.Undefined {
			rows = append(rows, []string{v.Variant, "NA", strconv.Itoa(v.Result.N), "NA"})
			continue
		}
		rows = append(rows, []string{
			v.Variant,
			fmtNum(v.Result.Tau),
			strconv.Itoa(v.Result.N),
			stats.FormatP(v.Result.P),
		})
	}
	return writeCSV(path, header, rows)
}

func writePondMedians(path string, meds []analysis.PondMedian) error {
	header := []string{"pond", "seasons", "median_area_m2"}
	var rows [][]string
	for _, m := range meds {
		rows = append(rows, []string{m.Pond, strconv.Itoa(m.Years), fmtNum(m.Median)})
	}
	return writeCSV(path, header, rows)
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
