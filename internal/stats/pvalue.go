package stats

import "fmt"

// pFloor is the display threshold below which p-values are reported as an
// inequality instead of an unstable small-value approximation.
const pFloor = 1e-4

// Alpha is the significance level used throughout the analysis.
const Alpha = 0.05

// FormatP renders a p-value for the report, saturating at "< 0.0001".
func FormatP(p float64) string {
	if p < pFloor {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}
