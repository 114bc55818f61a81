package annotate

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCNATruncatesBarcodes(t *testing.T) {
	file := writeFile(t, t.TempDir(), "cna.txt",
		"Hugo_Symbol\tEntrez_Gene_Id\tTCGA-A1-0001-01\tTCGA-A1-0002-01\tTCGA-A1-0003\n"+
			"ERBB2\t2064\t2\t-1\t\n"+
			"ERBB2\t2064\t9\t9\t9\n"+
			"TP53\t7157\t0\t1\t-2\n")

	got, err := CNA(context.Background(), "ERBB2",
		[]string{"TCGA-A1-0002-01A-11R", "TCGA-A1-0001", "TCGA-ZZ-0009-01", "TCGA-A1-0003-11"}, file)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, -1.0, got[0])
	assert.Equal(t, 2.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, math.IsNaN(got[3]))
}

func TestCNAUnknownGene(t *testing.T) {
	file := writeFile(t, t.TempDir(), "cna.txt", "Hugo_Symbol\tEntrez_Gene_Id\tS1\nTP53\t7157\t1\n")
	_, err := CNA(context.Background(), "KRAS", []string{"S1"}, file)
	assert.True(t, errors.Is(err, ErrGeneNotFound))
}

const tracks = "track_name\ttrack_type\tTCGA-01\tTCGA-02\tTCGA-03\tTCGA-04\n" +
	"Profiled\tCLINICAL\tYes\tYes\tNo\tYes\n" +
	"Other\tCLINICAL\tx\tx\tx\tx\n" +
	"ERBB2\tMUTATIONS\tMissense\t\tMissense\tTruncating\n"

func TestMutations(t *testing.T) {
	file := writeFile(t, t.TempDir(), "tracks.tsv", tracks)

	got, err := Mutations(context.Background(),
		[]string{"TCGA-01-A", "TCGA-02-B", "TCGA-03-C", "TCGA-04", "TCGA-05"}, file, "")
	require.NoError(t, err)

	codes := make([]int, len(got))
	for i, s := range got {
		codes[i] = s.Code
	}
	assert.Equal(t, []int{Mutated, NotMutated, NotProfiled, Mutated, NotProfiled}, codes)
	assert.Equal(t, "-1", got[2].String())
	assert.Equal(t, "1", got[0].String())
}

func TestMutationsSharedTruncatedBarcode(t *testing.T) {
	file := writeFile(t, t.TempDir(), "tracks.tsv",
		"track_name\ttrack_type\tTCGA-01-A\tTCGA-01-B\tTCGA-02-A\tTCGA-02-B\tTCGA-03\n"+
			"Profiled\tCLINICAL\tYes\tYes\tYes\tYes\tYes\n"+
			"Other\tCLINICAL\tx\tx\tx\tx\tx\n"+
			"ERBB2\tMUTATIONS\t\tMissense\tNonsense\t\t\n")

	got, err := Mutations(context.Background(), []string{"TCGA-01-Z", "TCGA-02-Z", "TCGA-03-Z"}, file, "")
	require.NoError(t, err)

	codes := make([]int, len(got))
	for i, s := range got {
		codes[i] = s.Code
	}
	assert.Equal(t, []int{Mutated, Mutated, NotMutated}, codes)
}

func TestMutationsProteinChange(t *testing.T) {
	dir := t.TempDir()
	status := writeFile(t, dir, "tracks.tsv", tracks)
	detail := writeFile(t, dir, "detail.tsv",
		"Study\tSample ID\tProtein Change\n"+
			"brca\tTCGA-01\tV777L\n"+
			"brca\tTCGA-04\tS310F\n"+
			"brca\tTCGA-04\tL755S\n")

	got, err := Mutations(context.Background(), []string{"TCGA-01-A", "TCGA-02-B", "TCGA-04-C"}, status, detail)
	require.NoError(t, err)
	assert.Equal(t, "V777L", got[0].String())
	assert.Equal(t, "0", got[1].String())
	assert.Equal(t, "L755S", got[2].String())
	assert.Equal(t, Mutated, got[2].Code)
}

func TestTranslocations(t *testing.T) {
	file := writeFile(t, t.TempDir(), "fusions.tsv",
		"Gene_A\tGene_B\tsampleId\n"+
			"TMPRSS2\tERG\tA1.0001\n"+
			"ERG\tTMPRSS2\tA1.0002\n"+
			"TMPRSS2\tETV1\tA1.0003\n")

	got, err := Translocations(context.Background(), "TMPRSS2", "ERG",
		[]string{"TCGA-A1-0001-01", "TCGA-A1-0002-01", "TCGA-A1-0003-01", "TCGA"}, file)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 0}, got)
}

func TestTranslocationsInconsistentSampleIDs(t *testing.T) {
	file := writeFile(t, t.TempDir(), "fusions.tsv",
		"Gene_A\tGene_B\tsampleId\n"+
			"TMPRSS2\tERG\tA1.0001\n"+
			"ERG\tTMPRSS2\tA1.0002.01\n")

	_, err := Translocations(context.Background(), "TMPRSS2", "ERG", []string{"TCGA-A1-0001"}, file)
	assert.Error(t, err)
}

func TestTranslocationsNoFusions(t *testing.T) {
	file := writeFile(t, t.TempDir(), "fusions.tsv", "Gene_A\tGene_B\tsampleId\nBCR\tABL1\tA1.0001\n")

	got, err := Translocations(context.Background(), "TMPRSS2", "ERG", []string{"TCGA-A1-0001"}, file)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func drugFixture(t *testing.T) (string, *dataset.Dataset) {
	dir := t.TempDir()
	writeFile(t, dir, "ic50.csv",
		",1003,1004\n"+
			"CL3,0.5,\n"+
			"CL1,,2.5\n"+
			"CL2,1.5,3\n"+
			"CL9,4,4\n"+
			"CL3,7,7\n")
	writeFile(t, dir, "drugs_specifications.csv",
		"Identifier,Name,Target\n"+
			"1003,Camptothecin,TOP1\n"+
			"1004,Vinblastine,Microtubules\n")

	ds, err := dataset.FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}},
		[]string{"G1", "G2"}, []string{"CL1", "CL2", "CL3"})
	require.NoError(t, err)
	return dir, ds
}

func TestReadDrugResponse(t *testing.T) {
	dir, ds := drugFixture(t)

	got, err := ReadDrugResponse(context.Background(), "1003", ds,
		filepath.Join(dir, "ic50.csv"), filepath.Join(dir, "drugs_specifications.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Camptothecin", got.DrugName)
	assert.Equal(t, []string{"CL2", "CL3"}, got.Data.Samples)
	assert.Equal(t, []float64{1.5, 0.5}, got.Responses)
	assert.Equal(t, []float64{3, 4}, got.Data.Row(0))
	assert.Equal(t, []float64{5, 6}, got.Data.Row(1))
}

func TestReadDrugResponseByType(t *testing.T) {
	dir, ds := drugFixture(t)

	got, err := ReadDrugResponseByType(context.Background(), "count", dir, "1004", ds)
	require.NoError(t, err)
	assert.Equal(t, "Vinblastine", got.DrugName)
	assert.Equal(t, []string{"CL1", "CL2", "CL3"}, got.Data.Samples)
	assert.Equal(t, []float64{2.5, 3, 7}, got.Responses)

	_, err = ReadDrugResponseByType(context.Background(), "fpkm", dir, "1004", ds)
	assert.True(t, errors.Is(err, ErrUnsupportedDataType))
}

func TestReadDrugResponseUnknownDrug(t *testing.T) {
	dir, ds := drugFixture(t)
	_, err := ReadDrugResponseByType(context.Background(), "count", dir, "9999", ds)
	assert.Error(t, err)
}

func TestDrugResponseFilesKeepStorageScheme(t *testing.T) {
	response, spec := drugResponseFiles("gs://bucket/cell_line")
	assert.Equal(t, "gs://bucket/cell_line/ic50.csv", response)
	assert.Equal(t, "gs://bucket/cell_line/drugs_specifications.csv", spec)

	response, _ = drugResponseFiles("gs://bucket/cell_line/")
	assert.Equal(t, "gs://bucket/cell_line/ic50.csv", response)
}
