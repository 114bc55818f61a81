// Package ncdftest writes small classic CDF files for tests.
package ncdftest

import (
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/require"
)

// Var is one variable of a fixture. Strings are character arrays, so a
// []string variable carries an extra innermost dimension for the string
// length and all of its strings must have the same length.
type Var struct {
	Name   string
	Values interface{}
	Dims   []string
}

// Write creates path as a classic CDF file holding vars in order.
func Write(t testing.TB, path string, vars ...Var) {
	t.Helper()

	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)

	for _, v := range vars {
		attrs, err := util.NewOrderedMap(nil, nil)
		require.NoError(t, err)

		err = cw.AddVar(v.Name, api.Variable{
			Values:     v.Values,
			Dimensions: v.Dims,
			Attributes: attrs,
		})
		require.NoError(t, err, "variable %s", v.Name)
	}

	require.NoError(t, cw.Close())
}

// Labels is a string coordinate variable named after its own dimension.
func Labels(name string, values ...string) Var {
	return Var{Name: name, Values: values, Dims: []string{name, name + "_strlen"}}
}
