package norm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// quantileNormalize gives every sample the same distribution of values, the
// mean across samples of the sorted values, as limma's normalizeQuantiles
// does. Tied values receive the interpolated value at their average rank.
// NaN entries stay NaN; samples with fewer observed values are interpolated
// onto the common quantile grid.
func quantileNormalize(x *mat.Dense) *mat.Dense {
	samples, genes := x.Dims()
	out := mat.DenseCopyOf(x)
	if genes == 0 || samples == 0 {
		return out
	}

	// Sorted observed values of each sample, resampled to the full length.
	grid := make([]float64, genes)
	for k := range grid {
		if genes > 1 {
			grid[k] = float64(k) / float64(genes-1)
		}
	}

	target := make([]float64, genes)
	observed := make([][]int, samples)
	for i := 0; i < samples; i++ {
		row := x.RawRowView(i)

		obs := make([]int, 0, genes)
		vals := make([]float64, 0, genes)
		for j, v := range row {
			if !math.IsNaN(v) {
				obs = append(obs, j)
				vals = append(vals, v)
			}
		}
		observed[i] = obs
		sort.Float64s(vals)

		if len(vals) == genes {
			for k, v := range vals {
				target[k] += v
			}
			continue
		}

		pos := evenGrid(len(vals))
		for k, p := range grid {
			target[k] += approx(pos, vals, p)
		}
	}
	for k := range target {
		target[k] /= float64(samples)
	}

	var r ranker
	for i := 0; i < samples; i++ {
		obs := observed[i]
		if len(obs) == 0 {
			continue
		}

		row := out.RawRowView(i)
		vals := make([]float64, len(obs))
		for k, j := range obs {
			vals[k] = row[j]
		}
		ranks := r.rank(vals)

		n := float64(len(obs))
		for k, j := range obs {
			// ranks are zero-based; map onto the common grid in [0, 1]
			p := 0.0
			if n > 1 {
				p = ranks[k] / (n - 1)
			}
			row[j] = approx(grid, target, p)
		}
	}

	return out
}

// evenGrid returns n points spaced evenly over [0, 1].
func evenGrid(n int) []float64 {
	out := make([]float64, n)
	for k := range out {
		if n > 1 {
			out[k] = float64(k) / float64(n-1)
		}
	}
	return out
}

// approx linearly interpolates y at position p given the increasing
// positions xs. Positions outside xs take the nearest end value.
func approx(xs, y []float64, p float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	if len(y) == 1 || p <= xs[0] {
		return y[0]
	}
	last := len(xs) - 1
	if p >= xs[last] {
		return y[last]
	}

	k := sort.SearchFloat64s(xs, p)
	if xs[k] == p {
		return y[k]
	}
	lo := k - 1
	t := (p - xs[lo]) / (xs[k] - xs[lo])
	return y[lo] + t*(y[k]-y[lo])
}
