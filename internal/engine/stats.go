package engine

import (
	"math"
	"sort"
)

// percentile returns the q-th percentile of xs using linear interpolation
// between order statistics. xs is not modified.
func percentile(xs []float64, q float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return xs[0]
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	h := q / 100.0 * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func median(xs []float64) float64 { return percentile(xs, 50) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func finitePairs(buyer, renter []float64) (bf, rf []float64) {
	for i := range buyer {
		if isFinite(buyer[i]) && isFinite(renter[i]) {
			bf = append(bf, buyer[i])
			rf = append(rf, renter[i])
		}
	}
	return bf, rf
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// winPercent computes the share of paths where the buyer finishes ahead of
// the renter, counting near-ties as half a win. The tie tolerance scales
// with the magnitude of the terminal values so deterministic equality
// resolves cleanly. Returns nil when no finite pair exists or the result is
// out of range.
func winPercent(buyer, renter []float64) *float64 {
	bf, rf := finitePairs(buyer, renter)
	if len(bf) == 0 {
		return nil
	}

	all := make([]float64, 0, 2*len(bf))
	for _, v := range bf {
		all = append(all, math.Abs(v))
	}
	for _, v := range rf {
		all = append(all, math.Abs(v))
	}
	scale := math.Max(1.0, median(all))
	tol := math.Max(1e-6, 1e-9*scale)

	wins, ties := 0, 0
	for i := range bf {
		d := bf[i] - rf[i]
		if d > tol {
			wins++
		} else if math.Abs(d) <= tol {
			ties++
		}
	}
	pct := (float64(wins) + 0.5*float64(ties)) / float64(len(bf)) * 100.0
	if !isFinite(pct) || pct < -1e-9 || pct > 100.0+1e-9 {
		return nil
	}
	return &pct
}
