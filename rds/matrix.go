package rds

import (
	"context"
	"fmt"
	"strconv"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// ReadMatrix reads an expression matrix from an .RDS file. Rows of the R
// object are samples and columns are genes. Both numeric matrices with
// dimnames and data.frames with row.names are accepted.
func ReadMatrix(ctx context.Context, path string) (*dataset.Dataset, error) {
	obj, err := ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	ds, err := ToDataset(obj)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return ds, nil
}

// ToDataset converts a decoded matrix or data.frame.
func ToDataset(obj *Object) (*dataset.Dataset, error) {
	if obj == nil {
		return nil, fmt.Errorf("object is NULL")
	}

	if obj.Type == VecSxp && obj.Inherits("data.frame") {
		return dataFrame(obj)
	}

	if !obj.IsNumeric() {
		return nil, fmt.Errorf("expected a numeric matrix or a data.frame, got SEXP type %d", obj.Type)
	}

	dim := obj.Dim()
	if len(dim) != 2 {
		return nil, fmt.Errorf("expected 2 dimensions, got %d", len(dim))
	}
	nrow, ncol := dim[0], dim[1]

	values := obj.Float64s()
	if len(values) != nrow*ncol {
		return nil, fmt.Errorf("matrix has %d values for dimensions %dx%d", len(values), nrow, ncol)
	}

	var samples, genes []string
	if dn := obj.Attr("dimnames"); dn != nil && len(dn.List) == 2 {
		samples = dn.List[0].StringValues()
		genes = dn.List[1].StringValues()
	}
	if samples == nil {
		samples = sequenceNames(nrow)
	}
	if genes == nil {
		genes = sequenceNames(ncol)
	}

	if nrow == 0 || ncol == 0 {
		return dataset.New(nil, genes, samples)
	}

	// R stores matrices column-major.
	data := mat.NewDense(nrow, ncol, nil)
	for j := 0; j < ncol; j++ {
		for i := 0; i < nrow; i++ {
			data.Set(i, j, values[j*nrow+i])
		}
	}

	return dataset.New(data, genes, samples)
}

func dataFrame(obj *Object) (*dataset.Dataset, error) {
	genes := obj.Attr("names").StringValues()
	if len(genes) != len(obj.List) {
		return nil, fmt.Errorf("data.frame has %d columns but %d names", len(obj.List), len(genes))
	}

	samples, err := rowNames(obj.Attr("row.names"))
	if err != nil {
		return nil, err
	}

	if len(samples) == 0 || len(genes) == 0 {
		return dataset.New(nil, genes, samples)
	}

	data := mat.NewDense(len(samples), len(genes), nil)
	for j, col := range obj.List {
		if !col.IsNumeric() {
			return nil, fmt.Errorf("column %q is not numeric", genes[j])
		}
		values := col.Float64s()
		if len(values) != len(samples) {
			return nil, fmt.Errorf("column %q has %d values, expected %d", genes[j], len(values), len(samples))
		}
		data.SetCol(j, values)
	}

	return dataset.New(data, genes, samples)
}

// rowNames decodes data.frame row names, including the compact c(NA, -n)
// form R uses for automatic names.
func rowNames(rn *Object) ([]string, error) {
	if rn == nil {
		return nil, fmt.Errorf("data.frame has no row.names")
	}

	switch rn.Type {
	case StrSxp:
		return rn.StringValues(), nil
	case IntSxp:
		if len(rn.Ints) == 2 && rn.Ints[0] == NAInteger {
			n := int(rn.Ints[1])
			if n < 0 {
				n = -n
			}
			return sequenceNames(n), nil
		}
		out := make([]string, len(rn.Ints))
		for i, v := range rn.Ints {
			out[i] = strconv.Itoa(int(v))
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported row.names of SEXP type %d", rn.Type)
}

// sequenceNames gives R's default 1-based labels.
func sequenceNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}
