package reader

import (
	"context"
	"fmt"
	"math"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/pfx"
)

type pdxCount struct {
	Sample string `csv:"sample"`
	Gene   string `csv:"TCGA_gene_name"`
	Counts string `csv:"counts"`
}

// ReadPDX reads the long-format PDX table (sample, TCGA_gene_name, counts),
// summing repeated entries. Missing values count as zero in the sum, so a pair
// whose only entries are missing is 0. Pairs without any entry are NaN.
func ReadPDX(ctx context.Context, file, geneLookup string) (*dataset.Dataset, error) {
	rows := []pdxCount{}
	if err := lookup.ReadTable(ctx, file, ',', &rows); err != nil {
		return nil, err
	}

	records := make([]dataset.Record, 0, len(rows))
	for _, row := range rows {
		v, err := parseValue(row.Counts)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: sample %s gene %s: %w", file, row.Sample, row.Gene, err))
		}
		if math.IsNaN(v) {
			v = 0
		}
		records = append(records, dataset.Record{Row: row.Sample, Column: row.Gene, Value: v})
	}

	return keepProteinCoding(dataset.Pivot(records, dataset.Sum, math.NaN()), geneLookup)
}
