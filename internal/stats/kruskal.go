package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Group is one sample in a k-group comparison. Callers exclude nulls before
// building groups (see Valid).
type Group struct {
	Name   string
	Values []float64
}

// GroupRank carries the per-group rank summary from a Kruskal-Wallis test.
type GroupRank struct {
	Name     string
	N        int
	MeanRank float64
}

// Pairwise is one post-hoc comparison between two groups. P is the Dunn
// z-test p-value after Bonferroni correction.
type Pairwise struct {
	A, B        string
	Z           float64
	P           float64
	Significant bool
}

// KruskalResult is a rank-based k-group comparison with post-hoc letter
// groupings. Groups sharing a letter are not significantly different at
// Alpha.
type KruskalResult struct {
	H      float64
	DF     int
	P      float64
	PCheck float64 // independent approximation, consulted when P saturates

	Groups   []GroupRank
	Pairwise []Pairwise
	Letters  map[string]string

	Undefined bool
	Reason    string
}

// KruskalWallis runs the tie-corrected Kruskal-Wallis rank test across the
// given groups, followed by Dunn pairwise z-tests under a Bonferroni
// correction and a compact letter display. Degenerate inputs (fewer than two
// populated groups, a single-value group, or a constant pooled sample) are
// reported as undefined rather than producing a spurious statistic.
func KruskalWallis(groups []Group) KruskalResult {
	var kept []Group
	for _, g := range groups {
		if len(g.Values) > 0 {
			kept = append(kept, g)
		}
	}
	if len(kept) < 2 {
		return KruskalResult{Undefined: true, Reason: "fewer than two non-empty groups"}
	}
	for _, g := range kept {
		if len(g.Values) < 2 {
			return KruskalResult{Undefined: true, Reason: "group " + g.Name + " has a single value"}
		}
	}

	// Pool and midrank.
	type obs struct {
		v     float64
		group int
	}
	var pooled []obs
	for gi, g := range kept {
		for _, v := range g.Values {
			pooled = append(pooled, obs{v: v, group: gi})
		}
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	n := len(pooled)
	ranks := make([]float64, n)
	tieSum := 0.0 // sum of t^3 - t over tie groups
	for i := 0; i < n; {
		j := i
		for j < n && pooled[j].v == pooled[i].v {
			j++
		}
		mid := float64(i+j+1) / 2 // average of ranks i+1 .. j
		for k := i; k < j; k++ {
			ranks[k] = mid
		}
		t := float64(j - i)
		tieSum += t*t*t - t
		i = j
	}

	nf := float64(n)
	if tieSum == nf*nf*nf-nf {
		return KruskalResult{Undefined: true, Reason: "all pooled values identical"}
	}

	rankSums := make([]float64, len(kept))
	for i, o := range pooled {
		rankSums[o.group] += ranks[i]
	}

	h := 0.0
	for gi, g := range kept {
		h += rankSums[gi] * rankSums[gi] / float64(len(g.Values))
	}
	h = 12/(nf*(nf+1))*h - 3*(nf+1)
	h /= 1 - tieSum/(nf*nf*nf-nf)

	df := len(kept) - 1
	chi2 := distuv.ChiSquared{K: float64(df)}

	res := KruskalResult{
		H:      h,
		DF:     df,
		P:      chi2.Survival(h),
		PCheck: chiSquaredSurvivalWH(h, float64(df)),
	}

	for gi, g := range kept {
		res.Groups = append(res.Groups, GroupRank{
			Name:     g.Name,
			N:        len(g.Values),
			MeanRank: rankSums[gi] / float64(len(g.Values)),
		})
	}

	res.Pairwise = dunn(res.Groups, nf, tieSum)
	res.Letters = compactLetters(res.Groups, res.Pairwise)
	return res
}

// dunn computes pairwise z-tests on rank means with the tie-corrected
// variance, Bonferroni-adjusted over all pairs.
func dunn(groups []GroupRank, n, tieSum float64) []Pairwise {
	k := len(groups)
	pairs := k * (k - 1) / 2
	variance := n*(n+1)/12 - tieSum/(12*(n-1))

	var out []Pairwise
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			gi, gj := groups[i], groups[j]
			se := math.Sqrt(variance * (1/float64(gi.N) + 1/float64(gj.N)))
			z := math.Abs(gi.MeanRank-gj.MeanRank) / se
			p := 2 * distuv.UnitNormal.Survival(z) * float64(pairs)
			if p > 1 {
				p = 1
			}
			out = append(out, Pairwise{
				A:           gi.Name,
				B:           gj.Name,
				Z:           z,
				P:           p,
				Significant: p < Alpha,
			})
		}
	}
	return out
}

// compactLetters assigns letter groupings over groups ordered by mean rank:
// a maximal run of groups with no significant pairwise difference shares a
// letter.
func compactLetters(groups []GroupRank, pairs []Pairwise) map[string]string {
	order := make([]string, len(groups))
	for i, g := range groups {
		order[i] = g.Name
	}
	rank := make(map[string]float64, len(groups))
	for _, g := range groups {
		rank[g.Name] = g.MeanRank
	}
	sort.Slice(order, func(i, j int) bool { return rank[order[i]] < rank[order[j]] })

	differ := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		if p.Significant {
			differ[[2]string{p.A, p.B}] = true
			differ[[2]string{p.B, p.A}] = true
		}
	}

	letters := make(map[string]string, len(groups))
	letter := byte('a')
	prevEnd := -1
	for i := 0; i < len(order); i++ {
		end := i
		for end+1 < len(order) {
			ok := true
			for m := i; m <= end; m++ {
				if differ[[2]string{order[m], order[end+1]}] {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
			end++
		}
		if end <= prevEnd {
			continue // run already covered by the previous letter
		}
		for m := i; m <= end; m++ {
			letters[order[m]] += string(letter)
		}
		letter++
		prevEnd = end
	}
	return letters
}

// chiSquaredSurvivalWH is the Wilson-Hilferty normal approximation to the
// chi-squared survival function, used as an independent cross-check when the
// primary routine saturates near zero.
func chiSquaredSurvivalWH(x, df float64) float64 {
	if x <= 0 {
		return 1
	}
	z := (math.Cbrt(x/df) - (1 - 2/(9*df))) / math.Sqrt(2/(9*df))
	return distuv.UnitNormal.Survival(z)
}
