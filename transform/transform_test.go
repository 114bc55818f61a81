package transform

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/norm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestApplyElementwise(t *testing.T) {
	x := mat.NewDense(1, 2, []float64{0, math.E - 1})

	out, err := Apply(x, Log)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1}, out.RawRowView(0), 1e-12)

	out, err = Apply(mat.NewDense(1, 1, []float64{1}), Voom)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.At(0, 0))

	out, err = Apply(mat.NewDense(1, 1, []float64{1.0 / 8.0}), Anscombe)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.5), out.At(0, 0), 1e-12)

	_, err = Apply(x, Method("boxcox"))
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	_, err = ParseMethod("boxcox")
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}

func TestQuantileNormalOutput(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})
	out, err := Apply(x, Quantile)
	require.NoError(t, err)

	assert.Less(t, out.At(0, 0), -5.0)
	assert.InDelta(t, 0, out.At(1, 0), 1e-9)
	assert.Greater(t, out.At(2, 0), 5.0)
	assert.InDelta(t, -out.At(0, 0), out.At(2, 0), 1e-6)

	// A constant gene sits on its lower bound.
	assert.Equal(t, out.At(0, 0), out.At(1, 1))

	// the input is untouched
	assert.Equal(t, 2.0, x.At(1, 0))
}

func TestInterpRepeatedKnots(t *testing.T) {
	xp := []float64{0, 1, 1, 2}
	fp := []float64{0, 0.25, 0.75, 1}
	assert.Equal(t, 0.75, interp(1, xp, fp))
	assert.Equal(t, 0.125, interp(0.5, xp, fp))
	assert.Equal(t, 1.0, interp(3, xp, fp))
	assert.Equal(t, 0.0, interp(-1, xp, fp))
}

func TestScaler(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{
		1, 10,
		3, 10,
	})

	s := NewScaler(true, true)
	out, err := s.FitTransform(x)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 10}, s.Mean)
	assert.InDeltaSlice(t, []float64{1, 1}, s.Scale, 1e-12)
	assert.InDeltaSlice(t, []float64{-1, 0}, out.RawRowView(0), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, out.RawRowView(1), 1e-12)

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, ErrScalerShape))
}

func TestScalerWithoutCentering(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{2, 6})
	s := NewScaler(false, true)
	out, err := s.FitTransform(x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, out.At(1, 0), 1e-12)
}

func counts(t *testing.T) *dataset.Dataset {
	d, err := dataset.FromRows([][]float64{
		{1, 3, 5, 0, 6, 9},
		{2, 4, 6, 0, 8, 10},
	}, []string{"a", "b", "c", "d", "e", "f"}, []string{"s1", "s2"})
	require.NoError(t, err)
	return d
}

func TestFeatureEngineeringVoomLog(t *testing.T) {
	out, params, err := FeatureEngineering(counts(t), "voom", "voom", false, false, nil)
	require.NoError(t, err)

	assert.InDelta(t, math.Log(60000), out.Data.At(0, 0), 1e-9)
	assert.Equal(t, norm.Voom, params.Normalization.Method)
	assert.Equal(t, []float64{25, 31}, params.Normalization.Factors)
	assert.Equal(t, Voom, params.Transformation)
}

func TestFeatureEngineeringCentersAndReuses(t *testing.T) {
	ds := counts(t)
	out, params, err := FeatureEngineering(ds, "total_count", "log", true, true, nil)
	require.NoError(t, err)
	assert.Equal(t, ds.Genes, out.Genes)

	_, genes := out.Dims()
	for j := 0; j < genes; j++ {
		assert.InDelta(t, 0, out.Data.At(0, j)+out.Data.At(1, j), 1e-9)
	}

	var buf bytes.Buffer
	require.NoError(t, params.Encode(&buf))
	decoded, err := DecodeParameters(&buf)
	require.NoError(t, err)
	assert.Equal(t, params, decoded)

	// Re-applying the stored parameters ignores the requested scaling.
	again, _, err := FeatureEngineering(ds, "total_count", "log", false, false, decoded)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(out.Data, again.Data, 1e-12))
}

func TestFeatureEngineeringRejectsUnknownNames(t *testing.T) {
	_, _, err := FeatureEngineering(counts(t), "rpkm", "log", false, false, nil)
	assert.True(t, errors.Is(err, norm.ErrUnknownMethod))

	_, _, err = FeatureEngineering(counts(t), "tmm", "boxcox", false, false, nil)
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	_, _, err = FeatureEngineering(&dataset.Dataset{}, "tmm", "log", false, false, nil)
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}
