package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// KendallResult is a rank correlation between two continuous variables.
// Tau is the tie-corrected tau-b statistic; P uses the normal approximation
// with the full tie-adjusted variance of S, matching the reference
// implementation's behavior on tied data.
type KendallResult struct {
	Tau       float64
	P         float64
	N         int
	Undefined bool
	Reason    string
}

// Kendall computes Kendall's tau-b over paired observations. Pairs are
// expected with nulls already excluded; fewer than three pairs, or a
// constant variable, is undefined.
func Kendall(x, y []float64) KendallResult {
	n := len(x)
	if n != len(y) {
		return KendallResult{Undefined: true, Reason: "length mismatch"}
	}
	if n < 3 {
		return KendallResult{N: n, Undefined: true, Reason: "fewer than three pairs"}
	}

	var s float64 // concordant minus discordant
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[j] - x[i]
			dy := y[j] - y[i]
			prod := dx * dy
			switch {
			case prod > 0:
				s++
			case prod < 0:
				s--
			}
		}
	}

	tx := tieCounts(x)
	ty := tieCounts(y)

	n0 := float64(n*(n-1)) / 2
	var t1, t2 float64 // pairs lost to ties in x and y
	for _, t := range tx {
		t1 += float64(t*(t-1)) / 2
	}
	for _, t := range ty {
		t2 += float64(t*(t-1)) / 2
	}

	denom := math.Sqrt((n0 - t1) * (n0 - t2))
	if denom == 0 {
		return KendallResult{N: n, Undefined: true, Reason: "constant variable"}
	}

	res := KendallResult{Tau: s / denom, N: n}

	// Variance of S with tie corrections (the no-exact case of the
	// reference cor.test).
	nf := float64(n)
	var vt, vu, v1a, v1b, v2a, v2b float64
	for _, t := range tx {
		tf := float64(t)
		vt += tf * (tf - 1) * (2*tf + 5)
		v1a += tf * (tf - 1)
		v2a += tf * (tf - 1) * (tf - 2)
	}
	for _, t := range ty {
		tf := float64(t)
		vu += tf * (tf - 1) * (2*tf + 5)
		v1b += tf * (tf - 1)
		v2b += tf * (tf - 1) * (tf - 2)
	}
	varS := (nf*(nf-1)*(2*nf+5) - vt - vu) / 18
	varS += v1a * v1b / (2 * nf * (nf - 1))
	varS += v2a * v2b / (9 * nf * (nf - 1) * (nf - 2))

	if varS <= 0 {
		res.Undefined = true
		res.Reason = "degenerate variance"
		return res
	}

	z := math.Abs(s) / math.Sqrt(varS)
	res.P = 2 * distuv.UnitNormal.Survival(z)
	if res.P > 1 {
		res.P = 1
	}
	return res
}

func tieCounts(xs []float64) []int {
	counts := make(map[float64]int, len(xs))
	for _, v := range xs {
		counts[v]++
	}
	var out []int
	for _, c := range counts {
		if c > 1 {
			out = append(out, c)
		}
	}
	return out
}
