package reader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/exprharmony/ncdf"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

const (
	tumorCounts  = "counts"
	tumorGenes   = "ensemble_gene"
	tumorAliquot = "aliquot"
)

// ReadTumor reads a TCGA cohort stored as NetCDF with a counts variable over
// the aliquot and ensemble_gene coordinates. Genes are sorted by their
// versioned Ensembl ID, then the version suffix is dropped. Samples are
// named by their barcode when a biospecimen table is given and by aliquot
// otherwise.
func ReadTumor(ctx context.Context, file, geneLookup, biospecimen string) (*dataset.Dataset, error) {
	nc, err := ncdf.Open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	genes, err := nc.Strings(tumorGenes)
	if err != nil {
		return nil, err
	}

	aliquots, err := nc.Strings(tumorAliquot)
	if err != nil {
		return nil, err
	}

	dims, err := nc.Dimensions(tumorCounts)
	if err != nil {
		return nil, err
	}

	rows, cols, values, err := nc.Matrix(tumorCounts)
	if err != nil {
		return nil, err
	}

	if rows == 0 || cols == 0 {
		return nil, pfx.Err(fmt.Errorf("%s: counts variable is empty", file))
	}

	data := mat.NewDense(rows, cols, values)
	if len(dims) == 2 && dims[0] == tumorGenes {
		data = mat.DenseCopyOf(data.T())
		rows, cols = cols, rows
	}
	if rows != len(aliquots) || cols != len(genes) {
		return nil, pfx.Err(fmt.Errorf("%s: counts are %dx%d for %d aliquots and %d genes", file, rows, cols, len(aliquots), len(genes)))
	}

	ds, err := dataset.New(data, genes, aliquots)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(genes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return genes[order[a]] < genes[order[b]] })
	ds = ds.SelectGenes(order)

	for j, gene := range ds.Genes {
		ds.Genes[j] = strings.SplitN(gene, ".", 2)[0]
	}

	ds, err = keepProteinCoding(ds, geneLookup)
	if err != nil {
		return nil, err
	}

	if biospecimen != "" {
		bio, err := lookup.ReadBiospecimen(ctx, biospecimen)
		if err != nil {
			return nil, err
		}
		barcodes, err := bio.Barcodes(ds.Samples)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", file, err))
		}
		ds.Samples = barcodes
	}

	log.WithFields(log.Fields{
		"file":    file,
		"samples": len(ds.Samples),
		"genes":   len(ds.Genes),
	}).Debugln("Read tumor counts")

	return ds, nil
}
