package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jmalen/pondflux/internal/models"
)

const dateLayout = "2006-01-02"

// header maps column names to indices, trimming whitespace and quotes the
// way R-exported tables tend to need.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(strings.Trim(name, "\""))] = i
	}
	return h, nil
}

func (h header) index(name string) (int, error) {
	i, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("missing required column %q", name)
	}
	return i, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(row[i], "\""))
}

// parseNullFloat treats empty cells and R's NA/NaN markers as null.
func parseNullFloat(s string) (sql.NullFloat64, error) {
	switch s {
	case "", "NA", "NaN", "null":
		return models.Null(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Null(), err
	}
	return models.Value(v), nil
}

// parseDate rejects missing or unparseable dates; there is no default date
// to coerce to.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return models.Day(t), nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return cr
}
