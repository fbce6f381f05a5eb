package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/jmalen/pondflux/internal/models"
)

// Daily flux table columns.
const (
	colDate     = "Date"
	colFieldID  = "Field_ID"
	colPond     = "Burkeetal2019_ID"
	colDailyAvg = "DailyAvgBubbleFlux"
)

// ReadDailyFlux parses the daily bubble flux table. Rows with a missing or
// unparseable date are rejected with the offending line number; a missing
// flux cell becomes a null value, not zero.
func ReadDailyFlux(path string) ([]models.DailyFlux, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open flux table: %w", err)
	}
	defer f.Close()

	rows, err := readDailyFlux(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	return rows, nil
}

func readDailyFlux(r io.Reader) ([]models.DailyFlux, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	dateIdx, err := h.index(colDate)
	if err != nil {
		return nil, err
	}
	pondIdx, err := h.index(colPond)
	if err != nil {
		return nil, err
	}
	fluxIdx, err := h.index(colDailyAvg)
	if err != nil {
		return nil, err
	}

	var out []models.DailyFlux
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

		date, err := parseDate(field(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date: %w", line, err)
		}

		pond := field(row, pondIdx)
		if pond == "" {
			return nil, fmt.Errorf("line %d: empty pond identifier", line)
		}

		flux, err := parseNullFloat(field(row, fluxIdx))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad flux value: %w", line, err)
		}

		out = append(out, models.DailyFlux{Date: date, Pond: pond, Flux: flux})
	}
	return out, nil
}
