package lookup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/carbocation/exprharmony/ncdf"
	"github.com/carbocation/pfx"
)

// CellLineType is one row of the cell line cancer type lookup.
type CellLineType struct {
	SampleName string `csv:"sample_name"`
	TCGAType   string `csv:"tcga_type"`
}

// ReadCellLineTypes loads the tab-delimited cell line cancer type lookup.
func ReadCellLineTypes(ctx context.Context, path string) ([]CellLineType, error) {
	rows := []CellLineType{}
	if err := ReadTable(ctx, path, '\t', &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SamplesOfType returns the sample names annotated with the given TCGA type.
func SamplesOfType(rows []CellLineType, tcgaType string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, row := range rows {
		if row.TCGAType == tcgaType {
			out[row.SampleName] = struct{}{}
		}
	}
	return out
}

// Biospecimen maps TCGA aliquot identifiers to sample barcodes.
type Biospecimen map[string]string

type biospecimenRow struct {
	Aliquot string `csv:"aliquot"`
	Barcode string `csv:"barcode"`
}

// ReadBiospecimen loads the aliquot to barcode mapping. Delimited files need
// aliquot and barcode columns. Anything else is read as NetCDF, where the
// barcode variable is indexed by an aliquot coordinate.
func ReadBiospecimen(ctx context.Context, path string) (Biospecimen, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz"))) {
	case ".csv", ".tsv", ".txt":
		rows := []biospecimenRow{}
		if err := ReadTable(ctx, path, AutoDelimiter, &rows); err != nil {
			return nil, err
		}
		out := make(Biospecimen, len(rows))
		for _, row := range rows {
			out[row.Aliquot] = row.Barcode
		}
		return out, nil
	}

	return readBiospecimenNetCDF(ctx, path)
}

func readBiospecimenNetCDF(ctx context.Context, path string) (Biospecimen, error) {
	nc, err := ncdf.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	barcodes, err := nc.Strings("barcode")
	if err != nil {
		return nil, err
	}

	dims, err := nc.Dimensions("barcode")
	if err != nil {
		return nil, err
	}
	if len(dims) < 1 {
		return nil, pfx.Err(fmt.Errorf("%s: barcode variable has no dimension", path))
	}

	// The index of the barcode variable is the coordinate variable that shares
	// the name of its dimension.
	aliquots, err := nc.Strings(dims[0])
	if err != nil {
		return nil, err
	}

	if len(aliquots) != len(barcodes) {
		return nil, pfx.Err(fmt.Errorf("%s: %d aliquots but %d barcodes", path, len(aliquots), len(barcodes)))
	}

	out := make(Biospecimen, len(aliquots))
	for i, aliquot := range aliquots {
		// First entry wins, matching a positional lookup
		if _, exists := out[aliquot]; !exists {
			out[aliquot] = barcodes[i]
		}
	}

	return out, nil
}

// Barcodes translates aliquots to barcodes, failing on the first unknown
// aliquot.
func (b Biospecimen) Barcodes(aliquots []string) ([]string, error) {
	out := make([]string, len(aliquots))
	for i, aliquot := range aliquots {
		barcode, exists := b[aliquot]
		if !exists {
			return nil, pfx.Err(fmt.Errorf("aliquot %s is not in the biospecimen table", aliquot))
		}
		out[i] = barcode
	}
	return out, nil
}
