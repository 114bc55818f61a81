package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Record is one cell of a long-format table.
type Record struct {
	Row    string
	Column string
	Value  float64
}

// Aggregation selects how repeated (row, column) records are combined.
type Aggregation int

const (
	Sum Aggregation = iota
	Mean
)

// Pivot reshapes long-format records into a Dataset whose samples are the
// sorted distinct Row keys and whose genes are the sorted distinct Column
// keys. Cells without any record receive fill.
func Pivot(records []Record, agg Aggregation, fill float64) *Dataset {
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for _, rec := range records {
		rowSet[rec.Row] = struct{}{}
		colSet[rec.Column] = struct{}{}
	}

	rows := sortedKeys(rowSet)
	cols := sortedKeys(colSet)
	out := &Dataset{Genes: cols, Samples: rows}
	if len(rows) == 0 || len(cols) == 0 {
		return out
	}

	rowIdx := FirstIndex(rows)
	colIdx := FirstIndex(cols)

	sums := make([]float64, len(rows)*len(cols))
	counts := make([]int, len(rows)*len(cols))
	for _, rec := range records {
		k := rowIdx[rec.Row]*len(cols) + colIdx[rec.Column]
		sums[k] += rec.Value
		counts[k]++
	}

	for k := range sums {
		switch {
		case counts[k] == 0:
			sums[k] = fill
		case agg == Mean:
			sums[k] /= float64(counts[k])
		}
	}

	out.Data = mat.NewDense(len(rows), len(cols), sums)

	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
