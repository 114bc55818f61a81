// Package harmonize puts two expression datasets into the same feature space.
package harmonize

import (
	"errors"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/lookup"
	log "github.com/sirupsen/logrus"
)

var ErrNoCommonGenes = errors.New("target and source share no genes")

// FeatureNaming restricts target and source to the genes they have in common
// and orders the columns of both by the sorted common gene names, so column j
// of each refers to the same gene. When a gene name is repeated within a
// dataset, its first column is used.
//
// If removeMitochondria is set and geneLookup names a gene status table,
// genes that do not map to chromosomes 1-22, X or Y are removed from both.
// Ensembl IDs that appear more than once in the lookup are treated as
// unmapped.
func FeatureNaming(target, source *dataset.Dataset, removeMitochondria bool, geneLookup string) (*dataset.Dataset, *dataset.Dataset, []string, error) {
	common := dataset.Intersect(target.Genes, source.Genes)

	if removeMitochondria && geneLookup != "" {
		table, err := lookup.ReadGeneTable(geneLookup)
		if err != nil {
			return nil, nil, nil, err
		}

		chromosomes := table.ChromosomesByEnsembl()
		kept := common[:0:0]
		for _, gene := range common {
			if lookup.IsNuclearChromosome(chromosomes[gene]) {
				kept = append(kept, gene)
			}
		}

		log.WithFields(log.Fields{
			"common":  len(common),
			"nuclear": len(kept),
		}).Debugln("Removed genes outside nuclear chromosomes")

		common = kept
	}

	if len(common) == 0 {
		return nil, nil, nil, ErrNoCommonGenes
	}

	t := target.SelectGenes(positions(target.Genes, common))
	s := source.SelectGenes(positions(source.Genes, common))

	log.WithFields(log.Fields{
		"target_genes": len(target.Genes),
		"source_genes": len(source.Genes),
		"common_genes": len(common),
	}).Infoln("Harmonized features")

	return t, s, common, nil
}

// positions maps each of genes to the first column holding it in names. All
// of genes must be present.
func positions(names, genes []string) []int {
	first := dataset.FirstIndex(names)
	out := make([]int, len(genes))
	for k, gene := range genes {
		out[k] = first[gene]
	}
	return out
}
