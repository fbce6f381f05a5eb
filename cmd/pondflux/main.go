package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/jmalen/pondflux/internal/flux"
	"github.com/jmalen/pondflux/internal/pipeline"
)

var cli struct {
	Survey string `help:"Path to the aerial-survey polygon CSV." required:"" type:"existingfile" env:"PONDFLUX_SURVEY"`
	Flux   string `help:"Path to the daily bubble flux CSV." required:"" type:"existingfile" env:"PONDFLUX_FLUX"`
	Out    string `help:"Directory for tables and figures." default:"out" env:"PONDFLUX_OUT"`

	Ponds     []string `help:"Pond identifiers to expand." default:"A,B,C,D,E,F,G,H"`
	FirstYear int      `help:"First field season." default:"2012"`
	LastYear  int      `help:"Last field season." default:"2018"`

	SeasonStart string `help:"Season start as MM-DD." default:"06-01"`
	SeasonEnd   string `help:"Season end as MM-DD." default:"09-30"`

	Figures     bool `help:"Render PNG figures."`
	WriteTables bool `help:"Write summary CSV tables."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("pondflux"),
		kong.Description("Relates thaw-pond surface geometry from aerial surveys to methane ebullition flux."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	season, err := parseSeason(cli.SeasonStart, cli.SeasonEnd)
	if err != nil {
		log.Fatalf("pondflux: %v", err)
	}
	if cli.LastYear < cli.FirstYear {
		log.Fatalf("pondflux: last year %d before first year %d", cli.LastYear, cli.FirstYear)
	}

	var years []int
	for y := cli.FirstYear; y <= cli.LastYear; y++ {
		years = append(years, y)
	}

	cfg := pipeline.Config{
		SurveyPath:  cli.Survey,
		FluxPath:    cli.Flux,
		OutDir:      cli.Out,
		Ponds:       cli.Ponds,
		Years:       years,
		Season:      season,
		Figures:     cli.Figures,
		WriteTables: cli.WriteTables,
	}
	if err := pipeline.Run(cfg, os.Stdout); err != nil {
		log.Fatalf("pondflux: %v", err)
	}
}

func parseSeason(start, end string) (flux.SeasonWindow, error) {
	var win flux.SeasonWindow
	sm, sd, err := parseMonthDay(start)
	if err != nil {
		return win, fmt.Errorf("bad season start: %w", err)
	}
	em, ed, err := parseMonthDay(end)
	if err != nil {
		return win, fmt.Errorf("bad season end: %w", err)
	}
	win = flux.SeasonWindow{StartMonth: sm, StartDay: sd, EndMonth: em, EndDay: ed}
	if first, last := win.Bounds(2000); first.After(last) {
		return win, fmt.Errorf("season end %s before start %s", end, start)
	}
	return win, nil
}

func parseMonthDay(s string) (time.Month, int, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Month(), t.Day(), nil
}
