package ingest

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jmalen/pondflux/internal/models"
)

// Survey polygon table columns.
const (
	colFlightDate = "FlightDate"
	colUASType    = "UAStype"
	colPolygon    = "PolygonType"
	colPondType   = "PondType"
	colAreaM2     = "area_m2"
	colEdgeM      = "edge_m"
	colEdgeArea   = "edge.area"
	colRefMedian  = "Median8dC_BubFlux"
	colCumFlux    = "Cumulative_BubFlux"
	colPrecip8d   = "TotPrec_8dpreflight"
)

// ReadSurvey parses the aerial-survey polygon table and runs per-record
// validation, logging a count of flagged records. Validation flags do not
// reject a record; bad dates, enum values, and numerics do.
func ReadSurvey(path string) ([]models.SurveyPolygon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open survey table: %w", err)
	}
	defer f.Close()

	rows, err := readSurvey(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}

	flagged := 0
	for i := range rows {
		if flags := ValidateSurveyPolygon(&rows[i]); len(flags) > 0 {
			flagged++
			log.Printf("ingest: survey row %s %s %s flagged: %v",
				rows[i].Pond, rows[i].FlightDate.Format(dateLayout), rows[i].Polygon, flags)
		}
	}
	if flagged > 0 {
		log.Printf("ingest: %d of %d survey rows carry quality flags", flagged, len(rows))
	}
	return rows, nil
}

func readSurvey(r io.Reader) ([]models.SurveyPolygon, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	required := []string{
		colFlightDate, colFieldID, colPond, colUASType, colPolygon, colPondType,
		colAreaM2, colEdgeM, colEdgeArea, colRefMedian, colCumFlux, colPrecip8d,
	}
	idx := make(map[string]int, len(required))
	for _, name := range required {
		i, err := h.index(name)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}

	var out []models.SurveyPolygon
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := parseDate(field(row, idx[colFlightDate]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad flight date: %w", line, err)
		}

		uas, err := parseUAS(field(row, idx[colUASType]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		poly, err := parsePolygon(field(row, idx[colPolygon]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		pondType, err := strconv.Atoi(field(row, idx[colPondType]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad pond type: %w", line, err)
		}

		rec := models.SurveyPolygon{
			FlightDate: date,
			FieldID:    field(row, idx[colFieldID]),
			Pond:       field(row, idx[colPond]),
			UAS:        uas,
			Polygon:    poly,
			PondType:   pondType,
		}
		if rec.Pond == "" {
			return nil, fmt.Errorf("line %d: empty pond identifier", line)
		}

		numeric := []struct {
			col  string
			dest *sql.NullFloat64
		}{
			{colAreaM2, &rec.AreaM2},
			{colEdgeM, &rec.EdgeM},
			{colEdgeArea, &rec.EdgeArea},
			{colRefMedian, &rec.RefMedian8d},
			{colCumFlux, &rec.CumFlux},
			{colPrecip8d, &rec.Precip8d},
		}
		for _, n := range numeric {
			v, err := parseNullFloat(field(row, idx[n.col]))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, n.col, err)
			}
			*n.dest = v
		}

		out = append(out, rec)
	}
	return out, nil
}

func parseUAS(s string) (models.UASType, error) {
	switch models.UASType(s) {
	case models.FixedWing, models.Quadcopter:
		return models.UASType(s), nil
	}
	return "", fmt.Errorf("unknown UAS type %q", s)
}

func parsePolygon(s string) (models.PolygonType, error) {
	switch models.PolygonType(s) {
	case models.PondDepression, models.Water:
		return models.PolygonType(s), nil
	}
	return "", fmt.Errorf("unknown polygon type %q", s)
}
