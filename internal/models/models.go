package models

import (
	"database/sql"
	"fmt"
	"time"
)

// UASType identifies which aircraft flew a survey.
type UASType string

const (
	FixedWing  UASType = "FWing"
	Quadcopter UASType = "Quad"
)

// PolygonType identifies which boundary a survey row describes: the maximal
// thaw extent ("pondedge") or the actual standing-water extent ("water").
type PolygonType string

const (
	PondDepression PolygonType = "pondedge"
	Water          PolygonType = "water"
)

// PondYear keys one sampling season for one named pond. It is the partition
// key for all time-series operations and the join key for cross-instrument
// enrichment.
type PondYear struct {
	Pond string
	Year int
}

func (k PondYear) String() string {
	return fmt.Sprintf("%s/%d", k.Pond, k.Year)
}

// DatePond keys a single calendar day for one pond.
type DatePond struct {
	Date time.Time // midnight UTC
	Pond string
}

// Day truncates a timestamp to the midnight-UTC day used in DatePond keys.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyFlux is one calendar day of ebullition flux for one pond. The calendar
// expansion creates one row per day in the season window whether or not a
// chamber measurement exists; Flux is null where it does not. The six rolling
// columns are filled in by the rolling aggregation.
type DailyFlux struct {
	Date time.Time
	Pond string
	Flux sql.NullFloat64 // daily average bubble flux, 3-decimal precision

	MedianRight  sql.NullFloat64
	MedianCenter sql.NullFloat64
	MedianLeft   sql.NullFloat64
	SumRight     sql.NullFloat64
	SumCenter    sql.NullFloat64
	SumLeft      sql.NullFloat64
}

// PondYearKey returns the partition key for this row.
func (d DailyFlux) PondYearKey() PondYear {
	return PondYear{Pond: d.Pond, Year: d.Date.Year()}
}

// DatePondKey returns the daily join key for this row.
func (d DailyFlux) DatePondKey() DatePond {
	return DatePond{Date: Day(d.Date), Pond: d.Pond}
}

// SurveyPolygon is one aerial-survey observation: one polygon of one type,
// digitized from one flight over one pond. RefMedian8d carries the
// pre-computed Median8dC_BubFlux column from the source table and is kept
// only as a regression reference for the recomputed value.
type SurveyPolygon struct {
	FlightDate  time.Time
	FieldID     string
	Pond        string
	UAS         UASType
	Polygon     PolygonType
	PondType    int // categorical cluster 1-4 from prior work
	AreaM2      sql.NullFloat64
	EdgeM       sql.NullFloat64
	EdgeArea    sql.NullFloat64
	CumFlux     sql.NullFloat64 // cumulative season flux at flight date
	Precip8d    sql.NullFloat64 // total precipitation, 8 days pre-flight
	RefMedian8d sql.NullFloat64

	// Enrichment columns, null until the joins run and null wherever no
	// match exists.
	Median8dCenter     sql.NullFloat64
	QuadMeanAreaSeason sql.NullFloat64
	QuadMeanAreaJuly   sql.NullFloat64
}

// PondYearKey returns the season partition key for this row.
func (s SurveyPolygon) PondYearKey() PondYear {
	return PondYear{Pond: s.Pond, Year: s.FlightDate.Year()}
}

// DatePondKey returns the flight-day join key for this row.
func (s SurveyPolygon) DatePondKey() DatePond {
	return DatePond{Date: Day(s.FlightDate), Pond: s.Pond}
}

// GroupSummary is one aggregate row of a grouped descriptive summary. Nulls
// in the source column are excluded before the statistics are computed; a
// group whose remaining sample is empty is Undefined.
type GroupSummary struct {
	Group     string // display label for the grouping key
	Count     int
	Median    float64
	Mean      float64
	Min       float64
	Max       float64
	Q1        float64
	Q3        float64
	Undefined bool
}

// Null and Value are shorthands for building nullable numerics.
func Null() sql.NullFloat64 {
	return sql.NullFloat64{}
}

func Value(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
