package harmonize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRows(t *testing.T, rows [][]float64, genes, samples []string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromRows(rows, genes, samples)
	require.NoError(t, err)
	return d
}

func TestFeatureNamingAlignsColumns(t *testing.T) {
	target := mustRows(t, [][]float64{{1, 2, 3}}, []string{"C", "A", "B"}, []string{"t1"})
	source := mustRows(t, [][]float64{{10, 20, 30, 40}}, []string{"B", "D", "A", "C"}, []string{"s1"})

	tgt, src, genes, err := FeatureNaming(target, source, false, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, genes)
	assert.Equal(t, genes, tgt.Genes)
	assert.Equal(t, genes, src.Genes)
	assert.Equal(t, []float64{2, 3, 1}, tgt.Row(0))
	assert.Equal(t, []float64{30, 10, 40}, src.Row(0))
}

func TestFeatureNamingFirstDuplicateWins(t *testing.T) {
	target := mustRows(t, [][]float64{{1, 2}}, []string{"A", "A"}, []string{"t1"})
	source := mustRows(t, [][]float64{{5}}, []string{"A"}, []string{"s1"})

	tgt, _, genes, err := FeatureNaming(target, source, false, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, genes)
	assert.Equal(t, []float64{1}, tgt.Row(0))
}

func TestFeatureNamingRemovesMitochondrialGenes(t *testing.T) {
	lookupFile := filepath.Join(t.TempDir(), "gene_status.csv")
	require.NoError(t, os.WriteFile(lookupFile, []byte(
		"TCGA_name,ENSEMBL,Hugo,status,chromosome_name\n"+
			"ENSG1,ENSG1,G1,protein_coding,1\n"+
			"ENSG2,ENSG2,G2,protein_coding,MT\n"+
			"ENSG3,ENSG3,G3,protein_coding,X\n"+
			"ENSG4,ENSG4,G4a,protein_coding,2\n"+
			"ENSG4,ENSG4,G4b,protein_coding,2\n"), 0o644))

	genes := []string{"ENSG1", "ENSG2", "ENSG3", "ENSG4", "ENSG5"}
	target := mustRows(t, [][]float64{{1, 2, 3, 4, 5}}, genes, []string{"t1"})
	source := mustRows(t, [][]float64{{6, 7, 8, 9, 10}}, genes, []string{"s1"})

	tgt, src, common, err := FeatureNaming(target, source, true, lookupFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"ENSG1", "ENSG3"}, common)
	assert.Equal(t, []float64{1, 3}, tgt.Row(0))
	assert.Equal(t, []float64{6, 8}, src.Row(0))
}

func TestFeatureNamingNoOverlap(t *testing.T) {
	target := mustRows(t, [][]float64{{1}}, []string{"A"}, []string{"t1"})
	source := mustRows(t, [][]float64{{1}}, []string{"B"}, []string{"s1"})

	_, _, _, err := FeatureNaming(target, source, false, "")
	assert.True(t, errors.Is(err, ErrNoCommonGenes))
}
