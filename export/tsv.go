// Package export writes expression datasets out as delimited text, numpy
// arrays or BigQuery rows.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/pfx"
)

// WriteTSV writes ds as a tab-delimited table with one row per sample. The
// header lists the genes after an empty cell for the sample column.
func WriteTSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := make([]string, 0, len(ds.Genes)+1)
	header = append(header, "")
	header = append(header, ds.Genes...)
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	record := make([]string, len(ds.Genes)+1)
	for i, sample := range ds.Samples {
		record[0] = sample
		for j := range ds.Genes {
			record[j+1] = strconv.FormatFloat(ds.Data.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return cw.Error()
}
