// Package ncdf reads labeled arrays out of NetCDF files (classic CDF or
// NetCDF4/HDF5), as written by xarray.
package ncdf

import (
	"context"
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/carbocation/exprharmony"
	"github.com/carbocation/pfx"
)

type File struct {
	path    string
	group   api.Group
	cleanup func()
}

// Open opens a local or gs:// NetCDF file. gs:// files are first copied to a
// temporary local file.
func Open(ctx context.Context, path string) (*File, error) {
	local, cleanup, err := exprharmony.LocalPath(ctx, path)
	if err != nil {
		return nil, err
	}

	g, err := netcdf.Open(local)
	if err != nil {
		cleanup()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return &File{path: path, group: g, cleanup: cleanup}, nil
}

func (f *File) Close() {
	f.group.Close()
	f.cleanup()
}

func (f *File) Variables() []string {
	return f.group.ListVariables()
}

func (f *File) variable(name string) (*api.Variable, error) {
	v, err := f.group.GetVariable(name)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: variable %q: %w", f.path, name, err))
	}
	return v, nil
}

// Dimensions returns the dimension names of a variable, outermost first.
func (f *File) Dimensions(name string) ([]string, error) {
	v, err := f.variable(name)
	if err != nil {
		return nil, err
	}
	return v.Dimensions, nil
}

// Strings returns a one-dimensional variable as strings. Numeric values are
// formatted with %v.
func (f *File) Strings(name string) ([]string, error) {
	v, err := f.variable(name)
	if err != nil {
		return nil, err
	}

	switch x := v.Values.(type) {
	case []string:
		return x, nil
	case string:
		// A single character array is a scalar string
		return []string{x}, nil
	}

	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice {
		return nil, pfx.Err(fmt.Errorf("%s: variable %q is a %T, not a vector", f.path, name, v.Values))
	}

	out := make([]string, rv.Len())
	for i := range out {
		out[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
	}

	return out, nil
}

// Matrix returns a two-dimensional numeric variable as row-major float64
// values along with its shape.
func (f *File) Matrix(name string) (rows, cols int, data []float64, err error) {
	v, err := f.variable(name)
	if err != nil {
		return 0, 0, nil, err
	}

	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice {
		return 0, 0, nil, pfx.Err(fmt.Errorf("%s: variable %q is a %T, not a matrix", f.path, name, v.Values))
	}

	rows = rv.Len()
	for i := 0; i < rows; i++ {
		row := rv.Index(i)
		if row.Kind() != reflect.Slice {
			return 0, 0, nil, pfx.Err(fmt.Errorf("%s: variable %q has %d dimensions, expected 2", f.path, name, len(v.Dimensions)))
		}
		if i == 0 {
			cols = row.Len()
			data = make([]float64, 0, rows*cols)
		} else if row.Len() != cols {
			return 0, 0, nil, pfx.Err(fmt.Errorf("%s: variable %q is ragged", f.path, name))
		}
		for j := 0; j < cols; j++ {
			x, err := toFloat(row.Index(j))
			if err != nil {
				return 0, 0, nil, pfx.Err(fmt.Errorf("%s: variable %q: %w", f.path, name, err))
			}
			data = append(data, x)
		}
	}

	return rows, cols, data, nil
}

func toFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	}

	return 0, fmt.Errorf("value of kind %s is not numeric", v.Kind())
}
