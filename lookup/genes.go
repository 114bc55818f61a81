package lookup

import (
	"context"
	"strconv"

	"github.com/BenLubar/memoize"
	log "github.com/sirupsen/logrus"
)

const ProteinCodingStatus = "protein_coding"

// GeneStatus is one row of the gene status lookup (gene_status.csv).
type GeneStatus struct {
	TCGAName   string `csv:"TCGA_name"`
	Ensembl    string `csv:"ENSEMBL"`
	Hugo       string `csv:"Hugo"`
	Status     string `csv:"status"`
	Chromosome string `csv:"chromosome_name"`
}

type GeneTable struct {
	Path string
	Rows []GeneStatus
}

var memoizedGeneTable = memoize.Memoize(loadGeneTable)

func loadGeneTable(path string) (*GeneTable, error) {
	rows := []GeneStatus{}
	if err := ReadTable(context.Background(), path, ',', &rows); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"file": path, "genes": len(rows)}).Debugln("Loaded gene lookup")

	return &GeneTable{Path: path, Rows: rows}, nil
}

// ReadGeneTable loads a comma-delimited gene status lookup. Tables are cached
// by path for the life of the process, since the same lookup is typically
// consulted once per dataset and again during harmonization.
func ReadGeneTable(path string) (*GeneTable, error) {
	return memoizedGeneTable.(func(string) (*GeneTable, error))(path)
}

// ProteinCoding returns the TCGA names of genes whose status is protein_coding.
func (g *GeneTable) ProteinCoding() map[string]struct{} {
	out := make(map[string]struct{})
	for _, row := range g.Rows {
		if row.Status == ProteinCodingStatus {
			out[row.TCGAName] = struct{}{}
		}
	}
	return out
}

// ChromosomesByEnsembl maps Ensembl gene IDs to their chromosome. IDs that
// appear more than once in the table are ambiguous and are dropped entirely.
func (g *GeneTable) ChromosomesByEnsembl() map[string]string {
	counts := make(map[string]int, len(g.Rows))
	for _, row := range g.Rows {
		counts[row.Ensembl]++
	}

	out := make(map[string]string, len(g.Rows))
	for _, row := range g.Rows {
		if counts[row.Ensembl] != 1 {
			continue
		}
		out[row.Ensembl] = row.Chromosome
	}

	return out
}

// IsNuclearChromosome is true for autosomes 1-22, X and Y. Mitochondrial
// genes, patches and unplaced scaffolds are not.
func IsNuclearChromosome(chromosome string) bool {
	switch chromosome {
	case "X", "Y":
		return true
	}

	n, err := strconv.Atoi(chromosome)
	if err != nil {
		return false
	}

	return n >= 1 && n <= 22 && strconv.Itoa(n) == chromosome
}
