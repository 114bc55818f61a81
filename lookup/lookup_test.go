package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/exprharmony/ncdf/ncdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const geneStatus = `TCGA_name,ENSEMBL,Hugo,status,chromosome_name
ENSG1,ENSG1,AAA,protein_coding,1
ENSG2,ENSG2,BBB,lincRNA,2
ENSG3,ENSG3,MT-CO1,protein_coding,MT
ENSG4,ENSG4,DDD,protein_coding,X
ENSG4,ENSG4,DDD2,protein_coding,X
`

func TestGeneTable(t *testing.T) {
	path := writeFile(t, "gene_status.csv", geneStatus)

	table, err := ReadGeneTable(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 5)

	pc := table.ProteinCoding()
	assert.Contains(t, pc, "ENSG1")
	assert.Contains(t, pc, "ENSG3")
	assert.NotContains(t, pc, "ENSG2")

	chroms := table.ChromosomesByEnsembl()
	assert.Equal(t, "1", chroms["ENSG1"])
	assert.Equal(t, "MT", chroms["ENSG3"])

	// Duplicated Ensembl IDs are dropped entirely
	_, exists := chroms["ENSG4"]
	assert.False(t, exists)

	// Second call hits the cache and returns the same table
	again, err := ReadGeneTable(path)
	require.NoError(t, err)
	assert.Same(t, table, again)
}

func TestIsNuclearChromosome(t *testing.T) {
	for _, c := range []string{"1", "9", "22", "X", "Y"} {
		assert.True(t, IsNuclearChromosome(c), c)
	}
	for _, c := range []string{"MT", "0", "23", "01", "", "GL000192.1", "HG1_PATCH"} {
		assert.False(t, IsNuclearChromosome(c), c)
	}
}

func TestCellLineTypes(t *testing.T) {
	path := writeFile(t, "cancer_type.csv", "sample_name\ttcga_type\nA549\tLUAD\nMCF7\tBRCA\nT47D\tBRCA\n")

	rows, err := ReadCellLineTypes(context.Background(), path)
	require.NoError(t, err)

	brca := SamplesOfType(rows, "BRCA")
	assert.Len(t, brca, 2)
	assert.Contains(t, brca, "MCF7")
	assert.Empty(t, SamplesOfType(rows, "SKCM"))
}

func TestProteinCodingEnsembl(t *testing.T) {
	rows := []GeneCharacteristic{
		{Ensembl: "E1", Hugo: "A", Status: "protein_coding"},
		{Ensembl: "E2", Hugo: "B", Status: "protein_coding"},
		{Ensembl: "E3", Hugo: "B", Status: "protein_coding"},
		{Ensembl: "E4", Hugo: "C", Status: "miRNA"},
	}
	got := ProteinCodingEnsembl(rows)
	assert.Equal(t, map[string]struct{}{"E1": {}}, got)
}

func TestDrugName(t *testing.T) {
	path := writeFile(t, "drugs.csv", "Identifier,Name,Target\n1003,Camptothecin,TOP1\n1004.0,Vinblastine,Microtubule\n")

	rows, err := ReadDrugSpecifications(context.Background(), path)
	require.NoError(t, err)

	name, err := DrugName(rows, "1004")
	require.NoError(t, err)
	assert.Equal(t, "Vinblastine", name)

	_, err = DrugName(rows, "1")
	assert.Error(t, err)
}

func TestBiospecimenDelimited(t *testing.T) {
	path := writeFile(t, "biospec.tsv", "aliquot\tbarcode\nal-1\tTCGA-AA-0001-01A\nal-2\tTCGA-AA-0002-01A\n")

	b, err := ReadBiospecimen(context.Background(), path)
	require.NoError(t, err)

	barcodes, err := b.Barcodes([]string{"al-2", "al-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCGA-AA-0002-01A", "TCGA-AA-0001-01A"}, barcodes)

	_, err = b.Barcodes([]string{"missing"})
	assert.Error(t, err)
}

func TestBiospecimenNetCDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biospec_BRCA")
	ncdftest.Write(t, path,
		ncdftest.Labels("index", "al-1", "al-2", "al-1"),
		ncdftest.Var{
			Name:   "barcode",
			Values: []string{"TCGA-AA-0001-01A", "TCGA-AA-0002-01A", "TCGA-AA-0003-01A"},
			Dims:   []string{"index", "barcode_strlen"},
		},
	)

	b, err := ReadBiospecimen(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, b, 2)

	// The first row of a repeated aliquot wins
	barcodes, err := b.Barcodes([]string{"al-2", "al-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCGA-AA-0002-01A", "TCGA-AA-0001-01A"}, barcodes)

	_, err = b.Barcodes([]string{"al-3"})
	assert.Error(t, err)
}

func TestReadRowsSniffsDelimiter(t *testing.T) {
	path := writeFile(t, "table.dat", "a;b;c\n1;2;3\n4;5;6\n")

	rows, err := ReadRows(context.Background(), path, AutoDelimiter)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}
