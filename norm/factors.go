package norm

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// voom returns counts per million with a pseudo count of 0.5, using the
// library sizes in factors.
func voom(x *mat.Dense, factors []float64) *mat.Dense {
	out := mat.DenseCopyOf(x)
	out.Apply(func(i, _ int, v float64) float64 {
		return (v + 0.5) / factors[i] * 1e6
	}, out)
	return out
}

func nonZero(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if x != 0 {
			out = append(out, x)
		}
	}
	return out
}

// nonZeroQuantiles returns the R-7 p-quantile of the non-zero counts of each
// sample.
func nonZeroQuantiles(x *mat.Dense, p float64) ([]float64, error) {
	data := rows(x)
	out := make([]float64, len(data))
	for i, row := range data {
		nz := nonZero(row)
		if len(nz) == 0 {
			return nil, fmt.Errorf("%w: sample %d", ErrNoNonZeroCounts, i)
		}
		out[i] = quantileR7(nz, p)
	}
	return out, nil
}

func nonZeroMedians(x *mat.Dense) ([]float64, error) {
	data := rows(x)
	out := make([]float64, len(data))
	for i, row := range data {
		nz := nonZero(row)
		if len(nz) == 0 {
			return nil, fmt.Errorf("%w: sample %d", ErrNoNonZeroCounts, i)
		}
		m, err := stats.Median(nz)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

// sizeFactors returns the DESeq size factor of each sample: the median ratio
// of its counts to the per-gene geometric mean across samples. Genes with a
// zero count in any sample do not contribute.
//
// "Differential expression analysis for sequence count data", Simon Anders and Wolfgang Huber,
// http://genomebiology.com/2010/11/10/r106.
func sizeFactors(x *mat.Dense) ([]float64, error) {
	data := rows(x)
	genes := len(data[0])

	logGeoMean := make([]float64, genes)
	usable := 0
	for j := 0; j < genes; j++ {
		var v float64
		for i := range data {
			v += math.Log(data[i][j])
		}
		logGeoMean[j] = v / float64(len(data))
		if !math.IsInf(logGeoMean[j], 0) && !math.IsNaN(logGeoMean[j]) {
			usable++
		}
	}
	if usable == 0 {
		return nil, ErrNoCommonGenes
	}

	f := make([]float64, len(data))
	t := make([]float64, 0, usable)
	for i, row := range data {
		for j, v := range row {
			if math.IsInf(logGeoMean[j], 0) || math.IsNaN(logGeoMean[j]) {
				continue
			}
			t = append(t, math.Log(v)-logGeoMean[j])
		}
		m, err := stats.Median(t)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		f[i] = math.Exp(m)
		t = t[:0]
	}

	return f, nil
}
