package reader

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const geneStatus = "TCGA_name,ENSEMBL,Hugo,status,chromosome_name\n" +
	"ENSG01,ENSG01,A,protein_coding,1\n" +
	"ENSG02,ENSG02,B,protein_coding,MT\n" +
	"ENSG03,ENSG03,C,lincRNA,2\n" +
	"ENSG04,ENSG04,D,protein_coding,X\n"

func testLayout(t *testing.T) Layout {
	dir := t.TempDir()

	writeFile(t, dir, "lookup/gene_status.csv", geneStatus)
	writeFile(t, dir, "cell_line/cancer_type.csv", "sample_name\ttcga_type\nCL1\tBRCA\nCL2\tLUAD\nCL3\tBRCA\n")
	writeFile(t, dir, "cell_line/rnaseq_fpkm_protein_coding.csv",
		"\tENSG04\tENSG03\tENSG01\tENSG02\n"+
			"CL1\t1\t2\t3\t4\n"+
			"CL2\t5\t6\t7\t8\n"+
			"CL3\t9\t10\t11\t12\n")
	writeFile(t, dir, "pdx/pdx_BRCA_TCGA_index_fpkm.csv",
		"sample,TCGA_gene_name,counts\n"+
			"P2,ENSG01,1\n"+
			"P1,ENSG01,2\n"+
			"P1,ENSG01,3\n"+
			"P1,ENSG02,4\n"+
			"P2,ENSG04,\n"+
			"P1,ENSG04,6\n")

	return Layout{
		CellLineFolder:     filepath.Join(dir, "cell_line"),
		CellPassportFolder: filepath.Join(dir, "cell_line"),
		TumorFolder:        filepath.Join(dir, "tumor"),
		PDXFolder:          filepath.Join(dir, "pdx"),
		LookupFolder:       filepath.Join(dir, "lookup"),
	}
}

func TestDefaultLayoutFiles(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, "../data/lookup/gene_status.csv", l.GeneLookupFile())
	assert.Equal(t, "../data/tumor/count_BRCA_netcdf", l.TumorFile("count", "BRCA"))
	assert.Equal(t, "../data/tumor/biospec_BRCA", l.BiospecimenFile("BRCA"))
	assert.Equal(t, "../data/pdx/pdx_BRCA_TCGA_index_fpkm.csv", l.PDXFile("BRCA"))
	assert.Equal(t, "../data/cell_line/rnaseq_readcounts_TCGA.RDS", l.CellLineCountFile())
}

func TestLoadLayoutOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "layout.yaml", "tumor_folder: gs://bucket/tumor\npdx_folder: /data/pdx\n")

	l, err := LoadLayout(config)
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/tumor/count_SKCM_netcdf", l.TumorFile("count", "SKCM"))
	assert.Equal(t, "/data/pdx/pdx_SKCM_TCGA_index_fpkm.csv", l.PDXFile("SKCM"))
	assert.Equal(t, DefaultLayout().LookupFolder, l.LookupFolder)
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReadCellLineFPKMFilters(t *testing.T) {
	l := testLayout(t)

	ds, err := ReadCellLineFPKM(context.Background(), l.CellLineFPKMFile(), l.GeneLookupFile(), l.CellLineTypesFile(), "BRCA")
	require.NoError(t, err)

	assert.Equal(t, []string{"CL1", "CL3"}, ds.Samples)
	assert.Equal(t, []string{"ENSG04", "ENSG01", "ENSG02"}, ds.Genes)
	assert.Equal(t, []float64{9, 11, 12}, ds.Row(1))
}

func TestReadCellLineFPKMWithoutFilters(t *testing.T) {
	l := testLayout(t)

	ds, err := ReadCellLineFPKM(context.Background(), l.CellLineFPKMFile(), "", l.CellLineTypesFile(), "")
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 3)
	assert.Len(t, ds.Genes, 4)
}

func TestParseIndexedMatrixNamedIndex(t *testing.T) {
	ds, err := parseIndexedMatrix([][]string{
		{"sample", "G1", "G2"},
		{"S1", "1", "NA"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2"}, ds.Genes)
	assert.Equal(t, 1.0, ds.Data.At(0, 0))
	assert.True(t, math.IsNaN(ds.Data.At(0, 1)))

	_, err = parseIndexedMatrix([][]string{{"G1"}, {"S1", "1", "2", "3"}})
	assert.Error(t, err)
}

func TestReadPDXSumsAndFillsNaN(t *testing.T) {
	l := testLayout(t)

	ds, err := ReadPDX(context.Background(), l.PDXFile("BRCA"), l.GeneLookupFile())
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2"}, ds.Samples)
	assert.Equal(t, []string{"ENSG01", "ENSG02", "ENSG04"}, ds.Genes)
	assert.Equal(t, 5.0, ds.Data.At(0, 0))
	assert.Equal(t, 1.0, ds.Data.At(1, 0))
	assert.True(t, math.IsNaN(ds.Data.At(1, 1)))
	assert.Equal(t, 6.0, ds.Data.At(0, 2))
	// P2 has a single empty ENSG04 entry
	assert.Equal(t, 0.0, ds.Data.At(1, 2))
}

func TestReadPDXMissingOnlyPair(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pdx.csv",
		"sample,TCGA_gene_name,counts\n"+
			"P1,ENSG01,2\n"+
			"P2,ENSG01,NA\n"+
			"P2,ENSG01,\n"+
			"P2,ENSG04,3\n")

	ds, err := ReadPDX(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2"}, ds.Samples)
	assert.Equal(t, []string{"ENSG01", "ENSG04"}, ds.Genes)
	assert.Equal(t, []float64{0, 3}, ds.Row(1))
	assert.True(t, math.IsNaN(ds.Data.At(0, 1)))
}

func TestReadCellPassport(t *testing.T) {
	dir := t.TempDir()
	counts := writeFile(t, dir, "rnaseq_latest.csv",
		"model_id,gene_id,read_count,fpkm\n"+
			"M1,G1,10,0.1\n"+
			"M1,G1,20,0.2\n"+
			"M1,G2,5,0.3\n"+
			"M2,G2,7,0.4\n"+
			"M3,G1,100,1\n"+
			"M1,G3,8,0.5\n")
	genes := writeFile(t, dir, "gene_identifiers_latest.csv",
		"gene_id,ensembl_gene_id,hgnc_symbol\nG1,ENSG1,A\nG2,ENSG2,B\nG3,ENSG3,C\n")
	models := writeFile(t, dir, "model_list_latest.csv",
		"model_id,model_name,tissue\nM1,HeLa,Cervix\nM2,SiHa,Cervix\nM3,MCF7,Breast\n")
	characteristics := writeFile(t, dir, "pybiomart_gene_status.csv",
		"ENSEMBL\tHugo\tstatus\nENSG1\tA\tprotein_coding\nENSG2\tB\tprotein_coding\nENSG3\tC\tlincRNA\n")

	ds, err := ReadCellPassport(context.Background(), counts, genes, models, characteristics, "Cervix")
	require.NoError(t, err)

	assert.Equal(t, []string{"HeLa", "SiHa"}, ds.Samples)
	assert.Equal(t, []string{"ENSG1", "ENSG2"}, ds.Genes)
	assert.Equal(t, []float64{15, 5}, ds.Row(0))
	assert.Equal(t, []float64{0, 7}, ds.Row(1))
}

func TestReadOneSourceRejectsUnsupported(t *testing.T) {
	l := testLayout(t)
	ctx := context.Background()

	_, err := ReadOneSource(ctx, l, PDX, Count, "BRCA")
	assert.Error(t, err)

	_, err = ReadOneSource(ctx, l, "organoid", FPKM, "BRCA")
	assert.Error(t, err)

	_, err = ReadOneSource(ctx, l, CellLine, "tpm", "BRCA")
	assert.Error(t, err)
}

func TestReadDataHarmonizes(t *testing.T) {
	l := testLayout(t)

	h, err := ReadData(context.Background(), l, CellLine, PDX, FPKM, "BRCA", "BRCA", true)
	require.NoError(t, err)

	// ENSG02 is mitochondrial, ENSG03 is not protein coding
	assert.Equal(t, []string{"ENSG01", "ENSG04"}, h.Genes)
	assert.Equal(t, []string{"CL1", "CL3"}, h.Source.Samples)
	assert.Equal(t, []string{"P1", "P2"}, h.Target.Samples)
	assert.Equal(t, []float64{3, 1}, h.Source.Row(0))
	assert.Equal(t, []float64{5, 6}, h.Target.Row(0))
}

func TestReadMatrixDelimited(t *testing.T) {
	path := writeFile(t, t.TempDir(), "matrix.csv", ",G1,G2\nS1,1,2\nS2,3,4\n")

	ds, err := ReadMatrix(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2"}, ds.Genes)
	assert.Equal(t, []string{"S1", "S2"}, ds.Samples)
	assert.Equal(t, 4.0, ds.Data.At(1, 1))
}
