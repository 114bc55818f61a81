// Package dataset holds expression matrices together with their gene and
// sample labels. Samples are rows and genes are columns.
package dataset

import (
	"fmt"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

type Dataset struct {
	Data    *mat.Dense
	Genes   []string
	Samples []string
}

// New validates that the labels match the dimensions of data. A nil data
// matrix is permitted only when there are neither samples nor genes.
func New(data *mat.Dense, genes, samples []string) (*Dataset, error) {
	d := &Dataset{Data: data, Genes: genes, Samples: samples}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// FromRows builds a Dataset from a row-major slice of sample vectors.
func FromRows(rows [][]float64, genes, samples []string) (*Dataset, error) {
	if len(rows) == 0 || len(genes) == 0 {
		return New(nil, genes, samples)
	}

	flat := make([]float64, 0, len(rows)*len(genes))
	for i, row := range rows {
		if len(row) != len(genes) {
			return nil, pfx.Err(fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(genes)))
		}
		flat = append(flat, row...)
	}

	return New(mat.NewDense(len(rows), len(genes), flat), genes, samples)
}

func (d *Dataset) Validate() error {
	r, c := d.Dims()
	if d.Data == nil && (len(d.Samples) > 0 && len(d.Genes) > 0) {
		return pfx.Err(fmt.Errorf("no data for %d samples and %d genes", len(d.Samples), len(d.Genes)))
	}
	if d.Data == nil {
		return nil
	}
	if r != len(d.Samples) {
		return pfx.Err(fmt.Errorf("matrix has %d rows but %d sample names", r, len(d.Samples)))
	}
	if c != len(d.Genes) {
		return pfx.Err(fmt.Errorf("matrix has %d columns but %d gene names", c, len(d.Genes)))
	}

	return nil
}

// Dims returns the number of samples and genes.
func (d *Dataset) Dims() (samples, genes int) {
	if d.Data == nil {
		return 0, 0
	}
	return d.Data.Dims()
}

func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Genes:   append([]string(nil), d.Genes...),
		Samples: append([]string(nil), d.Samples...),
	}
	if d.Data != nil {
		out.Data = mat.DenseCopyOf(d.Data)
	}
	return out
}

// Transpose swaps samples and genes.
func (d *Dataset) Transpose() *Dataset {
	out := &Dataset{
		Genes:   append([]string(nil), d.Samples...),
		Samples: append([]string(nil), d.Genes...),
	}
	if d.Data != nil {
		out.Data = mat.DenseCopyOf(d.Data.T())
	}
	return out
}

// Row returns a copy of the values of sample i.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.Data)
}

// SelectGenes returns a new Dataset restricted to the given gene columns, in
// the order of idx.
func (d *Dataset) SelectGenes(idx []int) *Dataset {
	samples, _ := d.Dims()
	out := &Dataset{
		Genes:   make([]string, len(idx)),
		Samples: append([]string(nil), d.Samples...),
	}
	for k, j := range idx {
		out.Genes[k] = d.Genes[j]
	}
	if samples == 0 || len(idx) == 0 {
		return out
	}

	out.Data = mat.NewDense(samples, len(idx), nil)
	for k, j := range idx {
		for i := 0; i < samples; i++ {
			out.Data.Set(i, k, d.Data.At(i, j))
		}
	}

	return out
}

// SelectSamples returns a new Dataset restricted to the given sample rows, in
// the order of idx.
func (d *Dataset) SelectSamples(idx []int) *Dataset {
	_, genes := d.Dims()
	out := &Dataset{
		Genes:   append([]string(nil), d.Genes...),
		Samples: make([]string, len(idx)),
	}
	for k, i := range idx {
		out.Samples[k] = d.Samples[i]
	}
	if genes == 0 || len(idx) == 0 {
		return out
	}

	out.Data = mat.NewDense(len(idx), genes, nil)
	for k, i := range idx {
		out.Data.SetRow(k, d.Data.RawRowView(i))
	}

	return out
}

// KeepGenes restricts the dataset to genes present in keep, preserving the
// current gene order.
func (d *Dataset) KeepGenes(keep map[string]struct{}) *Dataset {
	return d.SelectGenes(IndexIn(d.Genes, keep))
}

// KeepSamples restricts the dataset to samples present in keep, preserving the
// current sample order.
func (d *Dataset) KeepSamples(keep map[string]struct{}) *Dataset {
	return d.SelectSamples(IndexIn(d.Samples, keep))
}
