// Package transform applies variance stabilizing transformations and
// standard scaling to normalized expression matrices, and chains them with
// a normalization into a reusable feature engineering pipeline.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type Method string

const (
	None     Method = "none"
	Log      Method = "log"
	Voom     Method = "voom"
	Anscombe Method = "anscombe"
	Quantile Method = "quantile"
)

var Methods = []Method{None, Log, Voom, Anscombe, Quantile}

var ErrUnknownMethod = errors.New("transform: unknown transformation")

// ParseMethod resolves a transformation name case-insensitively. The empty
// string means None.
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

// Apply returns a transformed copy of x:
//
//	log       ln(x+1)
//	voom      ln(x), for data already normalized to voom counts per million
//	anscombe  sqrt(x+3/8)
//	quantile  per gene mapping to a standard normal through the empirical
//	          quantiles
func Apply(x *mat.Dense, method Method) (*mat.Dense, error) {
	out := mat.DenseCopyOf(x)

	switch method {
	case None, "":
	case Log:
		out.Apply(func(_, _ int, v float64) float64 { return math.Log(v + 1) }, out)
	case Voom:
		out.Apply(func(_, _ int, v float64) float64 { return math.Log(v) }, out)
	case Anscombe:
		out.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v + 3./8.) }, out)
	case Quantile:
		quantileNormal(out)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	return out, nil
}
