// Package reader loads expression matrices from each source (tumors, cell
// lines, PDX) into samples x genes datasets.
package reader

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/exprharmony/rds"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// ReadCellLineRDS reads the cell line read count matrix from an .RDS file.
// Optional filters: when both cellLineLookup and tumorType are set only cell
// lines of that TCGA type are kept, and when geneLookup is set only protein
// coding genes are kept.
func ReadCellLineRDS(ctx context.Context, file, geneLookup, cellLineLookup, tumorType string) (*dataset.Dataset, error) {
	ds, err := rds.ReadMatrix(ctx, file)
	if err != nil {
		return nil, err
	}

	return filterCellLines(ctx, ds, geneLookup, cellLineLookup, tumorType)
}

// ReadCellLineFPKM reads a tab-delimited matrix whose first column holds the
// sample names and whose header holds the genes. Filters are as for
// ReadCellLineRDS.
func ReadCellLineFPKM(ctx context.Context, file, geneLookup, cellLineLookup, tumorType string) (*dataset.Dataset, error) {
	rows, err := lookup.ReadRows(ctx, file, '\t')
	if err != nil {
		return nil, err
	}

	ds, err := parseIndexedMatrix(rows)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", file, err))
	}

	return filterCellLines(ctx, ds, geneLookup, cellLineLookup, tumorType)
}

// parseIndexedMatrix turns rows of "sample, value, value..." under a gene
// header into a dataset. The header may or may not carry a name for the
// index column.
func parseIndexedMatrix(rows [][]string) (*dataset.Dataset, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("no header")
	}

	header := rows[0]
	width := len(header)
	if len(rows) > 1 {
		width = len(rows[1])
	}

	var genes []string
	switch len(header) {
	case width:
		genes = header[1:]
	case width - 1:
		genes = header
	default:
		return nil, fmt.Errorf("header has %d fields but rows have %d", len(header), width)
	}

	samples := make([]string, 0, len(rows)-1)
	values := make([][]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != width {
			return nil, fmt.Errorf("line %d has %d fields, expected %d", i+2, len(row), width)
		}

		samples = append(samples, row[0])

		v := make([]float64, len(genes))
		for j, cell := range row[1:] {
			x, err := parseValue(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, gene %s: %w", i+2, genes[j], err)
			}
			v[j] = x
		}
		values = append(values, v)
	}

	return dataset.FromRows(values, genes, samples)
}

// parseValue reads a numeric cell. Empty cells and NA are missing.
func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func filterCellLines(ctx context.Context, ds *dataset.Dataset, geneLookup, cellLineLookup, tumorType string) (*dataset.Dataset, error) {
	if cellLineLookup != "" && tumorType != "" {
		types, err := lookup.ReadCellLineTypes(ctx, cellLineLookup)
		if err != nil {
			return nil, err
		}
		ds = ds.KeepSamples(lookup.SamplesOfType(types, tumorType))

		log.WithFields(log.Fields{"type": tumorType, "samples": len(ds.Samples)}).Debugln("Filtered cell lines")
	}

	return keepProteinCoding(ds, geneLookup)
}

func keepProteinCoding(ds *dataset.Dataset, geneLookup string) (*dataset.Dataset, error) {
	if geneLookup == "" {
		return ds, nil
	}

	table, err := lookup.ReadGeneTable(geneLookup)
	if err != nil {
		return nil, err
	}

	return ds.KeepGenes(table.ProteinCoding()), nil
}

type passportCount struct {
	ModelID   string `csv:"model_id"`
	GeneID    string `csv:"gene_id"`
	ReadCount string `csv:"read_count"`
}

// ReadCellPassport reads the long-format Cell Model Passport counts. Rows are
// joined to model names (restricted to tissue when it is set), to Ensembl
// gene IDs, and to the protein coding genes of the gene characteristics
// table, then pivoted to model_name x ensembl_gene_id using the mean read
// count. Missing cells are 0.
func ReadCellPassport(ctx context.Context, file, geneIdentifiers, modelList, geneCharacteristics, tissue string) (*dataset.Dataset, error) {
	counts := []passportCount{}
	if err := lookup.ReadTable(ctx, file, ',', &counts); err != nil {
		return nil, err
	}

	models, err := lookup.ReadPassportModels(ctx, modelList)
	if err != nil {
		return nil, err
	}

	genes, err := lookup.ReadPassportGenes(ctx, geneIdentifiers)
	if err != nil {
		return nil, err
	}

	characteristics, err := lookup.ReadGeneCharacteristics(ctx, geneCharacteristics)
	if err != nil {
		return nil, err
	}
	proteinCoding := lookup.ProteinCodingEnsembl(characteristics)

	modelNames := make(map[string][]string)
	for _, m := range models {
		if tissue != "" && m.Tissue != tissue {
			continue
		}
		modelNames[m.ModelID] = append(modelNames[m.ModelID], m.ModelName)
	}

	ensembl := make(map[string][]string)
	for _, g := range genes {
		if _, exists := proteinCoding[g.EnsemblGeneID]; !exists {
			continue
		}
		ensembl[g.GeneID] = append(ensembl[g.GeneID], g.EnsemblGeneID)
	}

	records := make([]dataset.Record, 0, len(counts))
	for _, c := range counts {
		names, exists := modelNames[c.ModelID]
		if !exists {
			continue
		}
		ids, exists := ensembl[c.GeneID]
		if !exists {
			continue
		}

		v, err := parseValue(c.ReadCount)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: model %s gene %s: %w", file, c.ModelID, c.GeneID, err))
		}
		if math.IsNaN(v) {
			continue
		}

		for _, name := range names {
			for _, id := range ids {
				records = append(records, dataset.Record{Row: name, Column: id, Value: v})
			}
		}
	}

	ds := dataset.Pivot(records, dataset.Mean, 0)

	log.WithFields(log.Fields{
		"file":    file,
		"records": len(records),
		"samples": len(ds.Samples),
		"genes":   len(ds.Genes),
	}).Debugln("Read Cell Model Passport counts")

	return ds, nil
}
