package ingest

import (
	"math"

	"github.com/jmalen/pondflux/internal/models"
)

const (
	FlagAreaNegative    = "area_negative"
	FlagEdgeNegative    = "edge_negative"
	FlagRatioMismatch   = "edge_area_ratio_mismatch"
	FlagPondTypeUnknown = "pond_type_unknown"
	FlagPrecipNegative  = "precip_negative"
)

// ValidateSurveyPolygon returns quality flags for a survey record. Flags are
// advisory: a flagged record stays in the table, the numbers just deserve a
// look before they end up in the manuscript.
func ValidateSurveyPolygon(rec *models.SurveyPolygon) []string {
	var flags []string

	if rec.AreaM2.Valid && rec.AreaM2.Float64 < 0 {
		flags = append(flags, FlagAreaNegative)
	}

	if rec.EdgeM.Valid && rec.EdgeM.Float64 < 0 {
		flags = append(flags, FlagEdgeNegative)
	}

	// edge.area should restate edge_m / area_m2. Tolerance is loose; the
	// source table carries rounded values.
	if rec.EdgeArea.Valid && rec.EdgeM.Valid && rec.AreaM2.Valid && rec.AreaM2.Float64 > 0 {
		want := rec.EdgeM.Float64 / rec.AreaM2.Float64
		if math.Abs(rec.EdgeArea.Float64-want) > 0.01*math.Max(1, math.Abs(want)) {
			flags = append(flags, FlagRatioMismatch)
		}
	}

	if rec.PondType < 1 || rec.PondType > 4 {
		flags = append(flags, FlagPondTypeUnknown)
	}

	if rec.Precip8d.Valid && rec.Precip8d.Float64 < 0 {
		flags = append(flags, FlagPrecipNegative)
	}

	return flags
}
