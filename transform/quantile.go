package transform

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	maxQuantiles = 1000

	// Values this close to the outermost quantiles are clipped to them.
	boundsThreshold = 1e-7
)

// quantileNormal replaces every column of x in place by its image under the
// empirical CDF of that column followed by the standard normal quantile
// function. The CDF is estimated from min(1000, rows) evenly spaced
// quantiles.
func quantileNormal(x *mat.Dense) {
	rows, cols := x.Dims()
	if rows == 0 {
		return
	}

	n := rows
	if n > maxQuantiles {
		n = maxQuantiles
	}
	refs := make([]float64, n)
	for k := range refs {
		if n > 1 {
			refs[k] = float64(k) / float64(n-1)
		}
	}

	// The normal quantiles of the bounds, with the threshold nudged by the
	// float64 machine epsilon.
	eps := math.Nextafter(1, 2) - 1
	clipMin := distuv.UnitNormal.Quantile(boundsThreshold - eps)
	clipMax := distuv.UnitNormal.Quantile(1 - (boundsThreshold - eps))

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		q := columnQuantiles(col, refs)
		if q == nil {
			continue
		}

		// Reversed and negated copies for the backward interpolation.
		negQ := make([]float64, len(q))
		negRefs := make([]float64, len(refs))
		for k := range q {
			negQ[k] = -q[len(q)-1-k]
			negRefs[k] = -refs[len(refs)-1-k]
		}

		lower, upper := q[0], q[len(q)-1]
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}

			var p float64
			switch {
			case v-boundsThreshold < lower:
				p = 0
			case v+boundsThreshold > upper:
				p = 1
			default:
				p = 0.5 * (interp(v, q, refs) - interp(-v, negQ, negRefs))
			}

			z := distuv.UnitNormal.Quantile(p)
			x.Set(i, j, math.Max(clipMin, math.Min(clipMax, z)))
		}
	}
}

// columnQuantiles returns the linearly interpolated quantiles of the non-NaN
// values of col at the given probabilities, made non-decreasing. It returns
// nil when every value is NaN.
func columnQuantiles(col, refs []float64) []float64 {
	vals := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)

	q := make([]float64, len(refs))
	for k, p := range refs {
		h := float64(len(vals)-1) * p
		i := int(h)
		if i >= len(vals)-1 {
			q[k] = vals[len(vals)-1]
		} else {
			q[k] = vals[i] + (h-float64(i))*(vals[i+1]-vals[i])
		}
		if k > 0 && q[k] < q[k-1] {
			q[k] = q[k-1]
		}
	}
	return q
}

// interp is piecewise linear interpolation of (xp, fp) at v, with xp
// non-decreasing. Among repeated xp values the last one is used. Outside
// xp the end values are returned.
func interp(v float64, xp, fp []float64) float64 {
	last := len(xp) - 1
	if v < xp[0] {
		return fp[0]
	}
	if v >= xp[last] {
		return fp[last]
	}

	j := sort.Search(len(xp), func(i int) bool { return xp[i] > v }) - 1
	return fp[j] + (v-xp[j])*(fp[j+1]-fp[j])/(xp[j+1]-xp[j])
}
