package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jmalen/pondflux/internal/analysis"
	"github.com/jmalen/pondflux/internal/models"
	"github.com/jmalen/pondflux/internal/stats"
)

// Print renders the full statistical report for the console.
func Print(w io.Writer, res *analysis.Results) {
	fmt.Fprintln(w, "=== Pond geometry vs. ebullition flux ===")
	fmt.Fprintln(w)

	printKruskal(w, "Depression area by pond type", res.DepressionAreaByPondType)
	printKruskal(w, "Edge:area ratio by polygon type", res.EdgeAreaByPolygonType)
	printKruskal(w, "Edge:area ratio by pond type", res.EdgeAreaByPondType)

	fmt.Fprintln(w, "--- Area vs. 8-day center median flux (Kendall) ---")
	polyTypes := make([]string, 0, len(res.AreaFluxTau))
	for p := range res.AreaFluxTau {
		polyTypes = append(polyTypes, string(p))
	}
	sort.Strings(polyTypes)
	for _, p := range polyTypes {
		printKendall(w, p, res.AreaFluxTau[models.PolygonType(p)])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Window variant comparison (depression area vs. flux) ---")
	for _, v := range res.VariantTaus {
		printKendall(w, v.Variant, v.Result)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Fixed-wing vs. quadcopter comparability ---")
	printKendall(w, "area vs quad season mean", res.FWSeasonTau)
	printKendall(w, "area vs quad July mean", res.FWJulyTau)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Pre-flight precipitation vs. water area ---")
	printKendall(w, "precip 8d vs water area", res.PrecipWaterTau)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Across-year median of per-season median depression area ---")
	for _, pm := range res.PondAreaMedians {
		fmt.Fprintf(w, "  pond %s: %.1f m2 over %d seasons\n", pm.Pond, pm.Median, pm.Years)
	}
	fmt.Fprintln(w)

	printSummaries(w, "Depression area by pond type", res.AreaByPondTypeSummary)
	printSummaries(w, "Monthly flux by pond", res.MonthlyFlux)

	rt := res.RoundTrip
	fmt.Fprintln(w, "--- Reference column round-trip check ---")
	fmt.Fprintf(w, "  %d rows matched, %d within tolerance, %d reference-only, max abs diff %.4g\n",
		rt.Matched, rt.Within, rt.RefOnly, rt.MaxAbsDiff)
	if rt.Matched > 0 && rt.Within < rt.Matched {
		fmt.Fprintf(w, "  WARNING: %d rows disagree with Median8dC_BubFlux\n", rt.Matched-rt.Within)
	}
}

func printKruskal(w io.Writer, title string, res stats.KruskalResult) {
	fmt.Fprintf(w, "--- %s (Kruskal-Wallis) ---\n", title)
	if res.Undefined {
		fmt.Fprintf(w, "  undefined: %s\n\n", res.Reason)
		return
	}
	fmt.Fprintf(w, "  H = %.3f, df = %d, p = %s\n", res.H, res.DF, stats.FormatP(res.P))
	if res.P < 1e-4 {
		fmt.Fprintf(w, "  (cross-check approximation: p = %s)\n", stats.FormatP(res.PCheck))
	}
	for _, g := range res.Groups {
		fmt.Fprintf(w, "  %-12s n=%-4d mean rank %6.1f  %s\n", g.Name, g.N, g.MeanRank, res.Letters[g.Name])
	}
	fmt.Fprintln(w)
}

func printKendall(w io.Writer, label string, res stats.KendallResult) {
	if res.Undefined {
		fmt.Fprintf(w, "  %-28s undefined: %s\n", label, res.Reason)
		return
	}
	fmt.Fprintf(w, "  %-28s tau = %+.3f, n = %d, p = %s\n", label, res.Tau, res.N, stats.FormatP(res.P))
}

func printSummaries(w io.Writer, title string, rows []models.GroupSummary) {
	fmt.Fprintf(w, "--- %s (summary) ---\n", title)
	fmt.Fprintf(w, "  %-16s %5s %9s %9s %9s %9s %9s %9s\n",
		"group", "n", "median", "mean", "min", "max", "q1", "q3")
	for _, s := range rows {
		if s.Undefined {
			fmt.Fprintf(w, "  %-16s undefined (no non-null values)\n", s.Group)
			continue
		}
		fmt.Fprintf(w, "  %-16s %5d %9.3f %9.3f %9.3f %9.3f %9.3f %9.3f\n",
			s.Group, s.Count, s.Median, s.Mean, s.Min, s.Max, s.Q1, s.Q3)
	}
	fmt.Fprintln(w)
}
