package annotate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

var ErrGeneNotFound = errors.New("gene not found")

// CNA looks up the copy number of gene for each tumor barcode in a
// tab-delimited cBioPortal matrix whose first two columns are Hugo_Symbol and
// Entrez_Gene_Id and whose remaining columns are sample barcodes. Barcodes on
// both sides are cut to the length of the shortest sample column before
// matching. Tumors without a column are NaN. If the gene has several rows, the
// first one is used.
func CNA(ctx context.Context, gene string, barcodes []string, file string) ([]float64, error) {
	rows, err := lookup.ReadRows(ctx, file, '\t')
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 || len(rows[0]) < 2 {
		return nil, pfx.Err(fmt.Errorf("%s: expected Hugo_Symbol, Entrez_Gene_Id and sample columns", file))
	}

	header := rows[0]
	symbolCol := columnIndex(header, "Hugo_Symbol")
	if symbolCol < 0 {
		return nil, pfx.Err(fmt.Errorf("%s: no Hugo_Symbol column", file))
	}

	var geneRow []string
	for _, row := range rows[1:] {
		if cell(row, symbolCol) == gene {
			geneRow = row
			break
		}
	}
	if geneRow == nil {
		return nil, fmt.Errorf("%s: %s: %w", file, gene, ErrGeneNotFound)
	}

	samples := header[2:]
	length := shortest(samples)

	column := make(map[string]int, len(samples))
	for i, sample := range samples {
		key := truncate(sample, length)
		if _, exists := column[key]; !exists {
			column[key] = i + 2
		}
	}

	out := make([]float64, len(barcodes))
	found := 0
	for i, barcode := range barcodes {
		j, exists := column[truncate(barcode, length)]
		if !exists {
			out[i] = math.NaN()
			continue
		}
		v, err := parseFloat(cell(geneRow, j))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s column %s: %w", file, gene, header[j], err))
		}
		out[i] = v
		found++
	}

	log.WithFields(log.Fields{
		"gene":    gene,
		"tumors":  len(barcodes),
		"matched": found,
	}).Debugln("Read copy number")

	return out, nil
}
