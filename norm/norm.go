// Package norm provides library size and distribution normalization of
// count matrices whose rows are samples and whose columns are genes.
//
// Each method computes one factor per sample. Factors are returned in a
// Parameters value so that a normalization fitted on one dataset can be
// re-applied later with identical factors.
package norm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type Method string

const (
	None          Method = "none"
	TMM           Method = "tmm"
	DESeq         Method = "deseq"
	TotalCount    Method = "total_count"
	UpperQuartile Method = "upper_quartile"
	Median        Method = "median"
	Quantile      Method = "quantile"
	Voom          Method = "voom"
)

// Methods lists every supported normalization.
var Methods = []Method{None, TMM, DESeq, TotalCount, UpperQuartile, Median, Quantile, Voom}

var (
	ErrUnknownMethod   = errors.New("norm: unknown normalization method")
	ErrMethodMismatch  = errors.New("norm: parameters were fitted with a different method")
	ErrFactorCount     = errors.New("norm: number of factors does not match number of samples")
	ErrNoNonZeroCounts = errors.New("norm: sample has no non-zero counts")
	ErrNoCommonGenes   = errors.New("norm: every gene has a zero count in at least one sample")
)

// ParseMethod resolves a method name case-insensitively. The empty string
// means None.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if m == "" {
		return None, nil
	}
	for _, v := range Methods {
		if m == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

func (m *Method) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parameters are the fitted state of a normalization: one factor per sample.
// Quantile and None have no factors.
type Parameters struct {
	Method  Method    `json:"method"`
	Factors []float64 `json:"factors,omitempty"`
}

// Fitted is true when the parameters carry factors that can be reused.
func (p *Parameters) Fitted() bool {
	return p != nil && p.Factors != nil
}

// Normalize applies method to x. When params carries factors they are reused,
// otherwise they are computed from x. The returned Parameters hold the
// factors that were used. x is not modified.
func Normalize(x *mat.Dense, method Method, params *Parameters) (*mat.Dense, *Parameters, error) {
	samples, _ := x.Dims()

	if params.Fitted() {
		if params.Method != "" && params.Method != method {
			return nil, nil, fmt.Errorf("%w: %s, not %s", ErrMethodMismatch, params.Method, method)
		}
		if len(params.Factors) != samples {
			return nil, nil, fmt.Errorf("%w: %d factors, %d samples", ErrFactorCount, len(params.Factors), samples)
		}
	}

	var factors []float64
	if params.Fitted() {
		factors = params.Factors
	}

	var (
		out *mat.Dense
		err error
	)
	switch method {
	case None, "":
		out = mat.DenseCopyOf(x)
	case TotalCount:
		if factors == nil {
			factors = rowSums(x)
		}
		out = scaleRows(x, factors, mean(factors))
	case Voom:
		if factors == nil {
			factors = rowSums(x)
			for i := range factors {
				factors[i]++
			}
		}
		out = voom(x, factors)
	case UpperQuartile:
		if factors == nil {
			factors, err = nonZeroQuantiles(x, 0.75)
		}
		if err == nil {
			out = scaleRows(x, factors, mean(factors))
		}
	case Median:
		if factors == nil {
			factors, err = nonZeroMedians(x)
		}
		if err == nil {
			out = scaleRows(x, factors, mean(factors))
		}
	case DESeq:
		counts := truncate(x)
		if factors == nil {
			factors, err = sizeFactors(counts)
		}
		if err == nil {
			out = scaleRows(counts, factors, 1)
		}
	case TMM:
		if factors == nil {
			factors, err = TMMFactors(rows(x), -1, 0.3, 0.05, -1e10, true)
		}
		if err == nil {
			out = tmmApply(x, factors)
		}
	case Quantile:
		out = quantileNormalize(x)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err != nil {
		return nil, nil, err
	}

	if method == "" {
		method = None
	}

	return out, &Parameters{Method: method, Factors: factors}, nil
}

func rows(x *mat.Dense) [][]float64 {
	r, _ := x.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, x)
	}
	return out
}

func rowSums(x *mat.Dense) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = mat.Sum(x.RowView(i))
	}
	return out
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// scaleRows returns x with row i divided by factors[i] and multiplied by k.
func scaleRows(x *mat.Dense, factors []float64, k float64) *mat.Dense {
	out := mat.DenseCopyOf(x)
	out.Apply(func(i, _ int, v float64) float64 {
		return v / factors[i] * k
	}, out)
	return out
}

// truncate casts counts to integers toward zero.
func truncate(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	out.Apply(func(_, _ int, v float64) float64 {
		return float64(int64(v))
	}, out)
	return out
}
