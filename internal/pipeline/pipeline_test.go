package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmalen/pondflux/internal/flux"
)

const fluxCSV = `Date,Field_ID,Burkeetal2019_ID,DailyAvgBubbleFlux
2013-07-01,W1,A,1
2013-07-02,W1,A,2
2013-07-03,W1,A,3
2013-07-04,W1,A,4
2013-07-05,W1,A,5
2013-07-06,W1,A,6
2013-07-07,W1,A,7
2013-07-08,W1,A,8
2013-07-09,W1,A,9
2013-07-10,W1,A,10
`

// Center-aligned windows for July 5 and 6 cover July 2-9 and 3-10, so the
// reference medians below are 5.5 and 6.5.
const surveyCSV = `FlightDate,Field_ID,Burkeetal2019_ID,UAStype,PolygonType,PondType,area_m2,edge_m,edge.area,Median8dC_BubFlux,Cumulative_BubFlux,TotPrec_8dpreflight
2013-07-05,W1,A,Quad,pondedge,1,100,40,0.4,5.5,12,3
2013-07-05,W1,A,Quad,water,1,80,36,0.45,5.5,12,3
2013-07-06,W1,A,FWing,pondedge,1,110,42,0.38,6.5,14,0
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	out := t.TempDir()
	cfg := Config{
		SurveyPath:  writeFixture(t, "survey.csv", surveyCSV),
		FluxPath:    writeFixture(t, "flux.csv", fluxCSV),
		OutDir:      out,
		Ponds:       DefaultPonds(),
		Years:       DefaultYears(),
		Season:      flux.DefaultSeason,
		Figures:     true,
		WriteTables: true,
	}

	var buf bytes.Buffer
	if err := Run(cfg, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := buf.String()
	for _, want := range []string{
		"Pond geometry vs. ebullition flux",
		"Window variant comparison",
		"Reference column round-trip check",
		"3 rows matched, 3 within tolerance",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(report, "WARNING") {
		t.Errorf("reference round-trip disagreed:\n%s", report)
	}

	for _, name := range []string{
		"area_by_pond_type.csv",
		"monthly_flux.csv",
		"window_variants.csv",
		"pond_area_medians.csv",
		"flux_A_2013.png",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}
}

func TestRunRejectsUnknownSurveyPond(t *testing.T) {
	bad := strings.Replace(surveyCSV, "2013-07-06,W1,A", "2013-07-06,W1,Z", 1)
	cfg := Config{
		SurveyPath: writeFixture(t, "survey.csv", bad),
		FluxPath:   writeFixture(t, "flux.csv", fluxCSV),
		Ponds:      DefaultPonds(),
		Years:      DefaultYears(),
		Season:     flux.DefaultSeason,
	}

	err := Run(cfg, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), `unknown pond "Z"`) {
		t.Fatalf("expected unknown pond error, got %v", err)
	}
}
