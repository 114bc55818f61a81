package ncdf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/carbocation/exprharmony/ncdf/ncdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCounts(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "counts.nc")
	ncdftest.Write(t, path,
		ncdftest.Labels("sample", "s1", "s2"),
		ncdftest.Var{Name: "depth", Values: []int32{10, 20}, Dims: []string{"sample"}},
		ncdftest.Var{Name: "counts", Values: [][]int32{{1, 2, 3}, {4, 5, 6}}, Dims: []string{"sample", "gene"}},
		ncdftest.Var{Name: "ratio", Values: [][]float64{{0.5}, {1.5}}, Dims: []string{"sample", "one"}},
	)
	return path
}

func TestStrings(t *testing.T) {
	f, err := Open(context.Background(), writeCounts(t))
	require.NoError(t, err)
	defer f.Close()

	samples, err := f.Strings("sample")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, samples)

	// Numeric vectors are formatted
	depth, err := f.Strings("depth")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, depth)

	assert.ElementsMatch(t, []string{"sample", "depth", "counts", "ratio"}, f.Variables())
}

func TestDimensions(t *testing.T) {
	f, err := Open(context.Background(), writeCounts(t))
	require.NoError(t, err)
	defer f.Close()

	dims, err := f.Dimensions("counts")
	require.NoError(t, err)
	assert.Equal(t, []string{"sample", "gene"}, dims)

	_, err = f.Dimensions("missing")
	assert.Error(t, err)
}

func TestMatrix(t *testing.T) {
	f, err := Open(context.Background(), writeCounts(t))
	require.NoError(t, err)
	defer f.Close()

	rows, cols, data, err := f.Matrix("counts")
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, data)

	rows, cols, data, err = f.Matrix("ratio")
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, []float64{0.5, 1.5}, data)

	// A vector is not a matrix
	_, _, _, err = f.Matrix("depth")
	assert.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.nc"))
	assert.Error(t, err)
}
