// Copyright ©2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package norm

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TMMFactors returns one factor per data vector according to the TMM
// normalization strategy of edgeR's calcNormFactors. Each vector in data is
// one sample. Genes that are zero in every sample are ignored. The value of
// ref specifies which vector is the reference; if it is not a valid index
// the reference is the vector whose size-normalized 75th percentile is
// closest to the mean of those percentiles. The factors are scaled to a
// geometric mean of 1.
//
// "A scaling normalization method for differential expression analysis of RNA-seq data",
// Mark Robinson and Alicia Oshlack, http://genomebiology.com/2010/11/3/r25.
func TMMFactors(data [][]float64, ref int, ratio, sum, minA float64, weight bool) ([]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	done, result, err := prepare(data)
	if done {
		return result, err
	}
	size := result

	data = dropAllZeros(data)
	if len(data[0]) == 0 {
		return ones(len(data)), nil
	}

	f := tmmFactors(data, refIndex(data, ref, size), size, ratio, sum, minA, weight)

	return expMeanLogScaled(f), nil
}

// tmmApply divides each sample by its effective library size, the TMM
// factor times its library size relative to the geometric mean library
// size, and rounds half to even.
func tmmApply(x *mat.Dense, factors []float64) *mat.Dense {
	size := rowSums(x)

	var meanLog float64
	for _, s := range size {
		meanLog += math.Log(s)
	}
	meanLog /= float64(len(size))
	geo := math.Exp(meanLog)

	out := mat.DenseCopyOf(x)
	out.Apply(func(i, _ int, v float64) float64 {
		return math.RoundToEven(v / (factors[i] * size[i] / geo))
	}, out)
	return out
}

func ones(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = 1
	}
	return f
}

// prepare assesses data vectors for correct shape and fast path cases. If no
// fast path is available and the data are correctly formed, the result contains
// the sum of each vector in data.
func prepare(data [][]float64) (done bool, result []float64, err error) {
	genes := len(data[0])
	if genes == 0 {
		return true, ones(len(data)), nil
	}

	if len(data) == 1 {
		return true, []float64{1}, nil
	}

	size := make([]float64, len(data))
	for i, v := range data {
		if len(v) != genes {
			return true, nil, errors.New("norm: mismatched data vector lengths")
		}
		for _, x := range v {
			size[i] += x
		}
	}

	return false, size, nil
}

// dropAllZeros returns copies of the data vectors without the genes that are
// zero in every vector.
func dropAllZeros(data [][]float64) [][]float64 {
	keep := make([]int, 0, len(data[0]))
	for j := range data[0] {
		for _, v := range data {
			if v[j] != 0 {
				keep = append(keep, j)
				break
			}
		}
	}

	out := make([][]float64, len(data))
	for i, v := range data {
		out[i] = make([]float64, len(keep))
		for k, j := range keep {
			out[i][k] = v[j]
		}
	}
	return out
}

// expMeanLogScaled returns the float64 slice scaled by the exp mean of the logged values.
func expMeanLogScaled(f []float64) []float64 {
	var expMeanLog float64
	for _, v := range f {
		expMeanLog += math.Log(v)
	}
	expMeanLog = math.Exp(expMeanLog / float64(len(f)))

	for i, v := range f {
		f[i] = v / expMeanLog
	}

	return f
}

// quantileR7 returns the pth quantile of v according the R-7 method, which is
// also numpy's default linear interpolation. v is sorted in place.
// http://en.wikipedia.org/wiki/Quantile#Estimating_the_quantiles_of_a_population
func quantileR7(v []float64, p float64) float64 {
	sort.Float64s(v)
	if p == 1 || len(v) == 1 {
		return v[len(v)-1]
	}
	h := float64(len(v)-1) * p
	i := int(h)
	return v[i] + (h-math.Floor(h))*(v[i+1]-v[i])
}

// quantiles returns the p-quantiles of the size-normalised data vectors.
func quantiles(data [][]float64, size []float64, p float64) []float64 {
	y := make([]float64, 0, len(data[0]))
	q := make([]float64, len(data))
	for i, v := range data {
		for _, x := range v {
			y = append(y, x/size[i])
		}
		q[i] = quantileR7(y, p)
		y = y[:0]
	}
	return q
}

// refIndex returns the preferred reference index. If ref is a valid index into data
// ref is returned unchanged, otherwise the index of the vector with the 75-percentile
// closest to the mean 75-percentile is returned.
func refIndex(data [][]float64, ref int, size []float64) int {
	if 0 <= ref && ref < len(data) {
		return ref
	}

	q75 := quantiles(data, size, 0.75)
	meanQ75 := mean(q75)

	ref = 0
	min := math.Abs(q75[0] - meanQ75)
	for i, v := range q75[1:] {
		if v := math.Abs(v - meanQ75); v < min {
			min = v
			ref = i + 1
		}
	}

	return ref
}

// ranker is a helper type for the rank function.
type ranker struct {
	f []float64 // Data to be ranked.
	r []int     // A list of indexes into f that reflects rank order after sorting.
}

// ranker satisfies the sort.Interface without mutating the reference slice, f.
func (r ranker) Len() int           { return len(r.f) }
func (r ranker) Less(i, j int) bool { return r.f[r.r[i]] < r.f[r.r[j]] }
func (r ranker) Swap(i, j int)      { r.r[i], r.r[j] = r.r[j], r.r[i] }

// rank returns the zero-based sample ranks of the values in a vector. Ties
// (i.e., equal values) are ranked as the mean rank of coequals.
func (r *ranker) rank(f []float64) []float64 {
	if len(f) == 0 {
		return nil
	}

	r.f = f
	if len(r.r) < len(f) {
		r.r = make([]int, len(f))
	} else {
		r.r = r.r[:len(f)]
	}

	for i := range r.r {
		r.r[i] = i
	}
	sort.Stable(r)
	rl := make([]float64, len(f))

	// Walk runs of equal values in sorted order, including a run that
	// reaches the end of the vector.
	for first := 0; first < len(r.r); {
		last := first
		for last+1 < len(r.r) && r.f[r.r[last+1]] == r.f[r.r[first]] {
			last++
		}
		v := float64(first+last) / 2
		for k := first; k <= last; k++ {
			rl[r.r[k]] = v
		}
		first = last + 1
	}

	return rl
}

// tmmFactors returns the relative weighting of each vector compared to a specified
// reference vector according to the TMM normalisation strategy.
func tmmFactors(data [][]float64, refIdx int, size []float64, ratio, sum, minA float64, weight bool) []float64 {
	f := make([]float64, len(data))
	ref := data[refIdx]
	sizeRef := size[refIdx]
	invSizeRef := 1 / sizeRef
	for k, alt := range data {
		sizeAlt := size[k]
		invSizeAlt := 1 / sizeAlt

		var (
			logRat = make([]float64, 0, len(alt))
			logInt = make([]float64, 0, len(alt))
			asmVar []float64
		)
		if weight {
			asmVar = make([]float64, 0, len(alt))
		}
		for i := range alt {
			// Calculate the gene-wise M_g and A_g.
			lR := math.Log2((alt[i] * invSizeAlt) / (ref[i] * invSizeRef))
			aI := (math.Log2(alt[i]*invSizeAlt) + math.Log2(ref[i]*invSizeRef)) / 2

			// Reject all disallowed data points here.
			if math.IsInf(lR, 0) || math.IsNaN(lR) || math.IsInf(aI, 0) || math.IsNaN(aI) || aI <= minA {
				continue
			}

			logRat = append(logRat, lR)
			logInt = append(logInt, aI)

			// Calculate asymptotic variance if weighting is requested.
			if weight {
				asmVar = append(asmVar, (sizeAlt-alt[i])*invSizeAlt/alt[i]+(sizeRef-ref[i])*invSizeRef/ref[i])
			}
		}

		// Identical vectors and vectors with no usable genes are not rescaled.
		if len(logRat) == 0 || maxAbs(logRat) < 1e-6 {
			f[k] = 1
			continue
		}

		// Determine the starts of tails that we trim.
		n := float64(len(logRat))
		minRat := math.Floor(n * ratio)
		maxRat := n - minRat - 1
		minSum := math.Floor(n * sum)
		maxSum := n - minSum - 1

		var r ranker
		rLogRat := r.rank(logRat)
		rLogInt := r.rank(logInt)

		var num, den float64
		for i := range logRat {
			// Trim by log fold-change and absolute intensity.
			if rLogRat[i] < minRat || rLogRat[i] > maxRat || rLogInt[i] < minSum || rLogInt[i] > maxSum {
				continue
			}

			// Weight by asymptotic variance if requested.
			if weight {
				num += (logRat[i] / asmVar[i])
				den += 1 / asmVar[i]
			} else {
				num += logRat[i]
				den++
			}
		}

		if den == 0 {
			f[k] = 1
			continue
		}
		f[k] = math.Pow(2, num/den)
	}

	return f
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
