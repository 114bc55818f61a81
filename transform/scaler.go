package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/exprharmony/norm"
	"github.com/carbocation/runningvariance"
	"gonum.org/v1/gonum/mat"
)

var ErrScalerShape = errors.New("transform: scaler was fitted on a different number of genes")

// Scaler standardizes each gene (column) to zero mean and unit population
// standard deviation. WithMean and WithStd select the centering and scaling
// steps. Genes with zero variance are left unscaled. NaN values are ignored
// when fitting and stay NaN.
type Scaler struct {
	WithMean bool      `json:"with_mean"`
	WithStd  bool      `json:"with_std"`
	Mean     []float64 `json:"mean,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
}

func NewScaler(withMean, withStd bool) *Scaler {
	return &Scaler{WithMean: withMean, WithStd: withStd}
}

// Fitted is true once Fit has populated the per gene statistics.
func (s *Scaler) Fitted() bool {
	return s != nil && s.Mean != nil
}

// Fit computes the per gene mean and scale of x.
func (s *Scaler) Fit(x *mat.Dense) {
	rows, cols := x.Dims()

	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)
	for j := 0; j < cols; j++ {
		rs := runningvariance.NewRunningStat()
		for i := 0; i < rows; i++ {
			if v := x.At(i, j); !math.IsNaN(v) {
				rs.Push(v)
			}
		}

		n := float64(rs.N)
		if n == 0 {
			s.Mean[j] = math.NaN()
			s.Scale[j] = 1
			continue
		}
		s.Mean[j] = rs.Mean()

		// RunningStat reports the sample variance.
		var variance float64
		if n > 1 {
			variance = rs.Variance() * (n - 1) / n
		}
		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] < 10*eps64*math.Abs(s.Mean[j]) || s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
}

// Transform returns a scaled copy of x.
func (s *Scaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	_, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("%w: fitted on %d, got %d", ErrScalerShape, len(s.Mean), cols)
	}

	out := mat.DenseCopyOf(x)
	out.Apply(func(_, j int, v float64) float64 {
		if s.WithMean {
			v -= s.Mean[j]
		}
		if s.WithStd {
			v /= s.Scale[j]
		}
		return v
	}, out)

	return out, nil
}

// FitTransform fits the scaler to x and returns the scaled x.
func (s *Scaler) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	s.Fit(x)
	return s.Transform(x)
}

type plainScaler Scaler

// MarshalJSON keeps non-finite means and scales, which a log transform of
// zero counts produces.
func (s Scaler) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainScaler
		Mean  norm.Floats `json:"mean,omitempty"`
		Scale norm.Floats `json:"scale,omitempty"`
	}{plainScaler(s), s.Mean, s.Scale})
}

func (s *Scaler) UnmarshalJSON(b []byte) error {
	aux := struct {
		*plainScaler
		Mean  norm.Floats `json:"mean,omitempty"`
		Scale norm.Floats `json:"scale,omitempty"`
	}{plainScaler: (*plainScaler)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Mean, s.Scale = aux.Mean, aux.Scale
	return nil
}

var eps64 = math.Nextafter(1, 2) - 1
