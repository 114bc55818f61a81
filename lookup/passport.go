package lookup

import (
	"context"
)

// PassportModel is one row of the Cell Model Passport model list.
type PassportModel struct {
	ModelID   string `csv:"model_id"`
	ModelName string `csv:"model_name"`
	Tissue    string `csv:"tissue"`
}

// PassportGene is one row of the Cell Model Passport gene identifiers.
type PassportGene struct {
	GeneID        string `csv:"gene_id"`
	EnsemblGeneID string `csv:"ensembl_gene_id"`
}

// GeneCharacteristic is one row of the tab-delimited gene characteristics
// table used to flag protein coding genes for Cell Model Passport data.
type GeneCharacteristic struct {
	Ensembl string `csv:"ENSEMBL"`
	Hugo    string `csv:"Hugo"`
	Status  string `csv:"status"`
}

func ReadPassportModels(ctx context.Context, path string) ([]PassportModel, error) {
	rows := []PassportModel{}
	if err := ReadTable(ctx, path, ',', &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func ReadPassportGenes(ctx context.Context, path string) ([]PassportGene, error) {
	rows := []PassportGene{}
	if err := ReadTable(ctx, path, ',', &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func ReadGeneCharacteristics(ctx context.Context, path string) ([]GeneCharacteristic, error) {
	rows := []GeneCharacteristic{}
	if err := ReadTable(ctx, path, '\t', &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProteinCodingEnsembl returns the Ensembl IDs of protein coding genes. Rows
// whose Hugo symbol is repeated anywhere in the table are dropped entirely.
func ProteinCodingEnsembl(rows []GeneCharacteristic) map[string]struct{} {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Hugo]++
	}

	out := make(map[string]struct{})
	for _, row := range rows {
		if counts[row.Hugo] != 1 || row.Status != ProteinCodingStatus {
			continue
		}
		out[row.Ensembl] = struct{}{}
	}

	return out
}
