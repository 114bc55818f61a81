package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func example(t *testing.T) *Dataset {
	d, err := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}, []string{"g1", "g2", "g3"}, []string{"s1", "s2"})
	require.NoError(t, err)
	return d
}

func TestNewRejectsMismatchedLabels(t *testing.T) {
	_, err := New(mat.NewDense(2, 2, nil), []string{"a"}, []string{"x", "y"})
	assert.Error(t, err)

	_, err = New(mat.NewDense(2, 2, nil), []string{"a", "b"}, []string{"x"})
	assert.Error(t, err)

	_, err = FromRows([][]float64{{1, 2}, {3}}, []string{"a", "b"}, []string{"x", "y"})
	assert.Error(t, err)
}

func TestSelectGenesFollowsIndexOrder(t *testing.T) {
	d := example(t)
	sub := d.SelectGenes([]int{2, 0})

	assert.Equal(t, []string{"g3", "g1"}, sub.Genes)
	assert.Equal(t, []float64{3, 1}, sub.Row(0))
	assert.Equal(t, []float64{6, 4}, sub.Row(1))

	// The source must be untouched
	assert.Equal(t, []float64{1, 2, 3}, d.Row(0))
}

func TestSelectSamplesEmpty(t *testing.T) {
	d := example(t)
	sub := d.SelectSamples(nil)
	r, c := sub.Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, c)
	assert.Len(t, sub.Genes, 3)
}

func TestKeepSamplesPreservesOrder(t *testing.T) {
	d := example(t)
	sub := d.KeepSamples(Set([]string{"s2", "zzz"}))
	assert.Equal(t, []string{"s2"}, sub.Samples)
	assert.Equal(t, []float64{4, 5, 6}, sub.Row(0))
}

func TestIntersectIsSortedAndUnique(t *testing.T) {
	got := Intersect([]string{"c", "a", "b", "a"}, []string{"b", "a", "d"})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Empty(t, Intersect([]string{"a"}, nil))
}

func TestDuplicates(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Duplicates([]string{"a", "b", "c", "a", "c", "c"}))
}

func TestPivot(t *testing.T) {
	records := []Record{
		{Row: "s2", Column: "B", Value: 1},
		{Row: "s1", Column: "A", Value: 2},
		{Row: "s1", Column: "A", Value: 4},
		{Row: "s2", Column: "A", Value: 3},
	}

	sum := Pivot(records, Sum, math.NaN())
	assert.Equal(t, []string{"s1", "s2"}, sum.Samples)
	assert.Equal(t, []string{"A", "B"}, sum.Genes)
	assert.Equal(t, 6.0, sum.Data.At(0, 0))
	assert.True(t, math.IsNaN(sum.Data.At(0, 1)))
	assert.Equal(t, 3.0, sum.Data.At(1, 0))

	avg := Pivot(records, Mean, 0)
	assert.Equal(t, 3.0, avg.Data.At(0, 0))
	assert.Equal(t, 0.0, avg.Data.At(0, 1))
}

func TestTranspose(t *testing.T) {
	tr := example(t).Transpose()
	assert.Equal(t, []string{"g1", "g2", "g3"}, tr.Samples)
	assert.Equal(t, []string{"s1", "s2"}, tr.Genes)
	assert.Equal(t, []float64{2, 5}, tr.Row(1))
	require.NoError(t, tr.Validate())
}
