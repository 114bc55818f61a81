// annotate prints a per-tumor label (copy number, mutation status or fusion
// indicator) for the samples of an expression matrix or a list of barcodes.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/exprharmony/annotate"
	_ "github.com/carbocation/exprharmony/compileinfoprint"
	"github.com/carbocation/exprharmony/reader"
)

const (
	KindCNA            = "cna"
	KindMutations      = "mutations"
	KindTranslocations = "translocations"
)

var (
	STDOUT = bufio.NewWriterSize(os.Stdout, 4096)
)

func main() {
	defer STDOUT.Flush()

	var (
		kind         string
		matrixPath   string
		barcodesPath string
		file         string
		detailFile   string
		gene, geneB  string
	)

	flag.StringVar(&kind, "kind", "", "Annotation: cna, mutations or translocations.")
	flag.StringVar(&matrixPath, "matrix", "", "Expression matrix whose sample names are the tumor barcodes.")
	flag.StringVar(&barcodesPath, "barcodes", "", "Alternatively, a file with one tumor barcode per line.")
	flag.StringVar(&file, "file", "", "cBioPortal CNA matrix, oncoprint track file or fusion table.")
	flag.StringVar(&detailFile, "detail", "", "Optional mutation table with Sample ID and Protein Change columns.")
	flag.StringVar(&gene, "gene", "", "Gene for cna, first fusion partner for translocations.")
	flag.StringVar(&geneB, "gene-b", "", "Second fusion partner for translocations.")
	flag.Parse()

	if kind == "" || file == "" || (matrixPath == "") == (barcodesPath == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	barcodes, err := readBarcodes(ctx, matrixPath, barcodesPath)
	if err != nil {
		log.Fatalln(err)
	}

	var labels []string
	switch kind {
	case KindCNA:
		if gene == "" {
			log.Fatalln("-gene is required for cna")
		}
		values, err := annotate.CNA(ctx, gene, barcodes, file)
		if err != nil {
			log.Fatalln(err)
		}
		for _, v := range values {
			labels = append(labels, strconv.FormatFloat(v, 'g', -1, 64))
		}
	case KindMutations:
		statuses, err := annotate.Mutations(ctx, barcodes, file, detailFile)
		if err != nil {
			log.Fatalln(err)
		}
		for _, s := range statuses {
			labels = append(labels, s.String())
		}
	case KindTranslocations:
		if gene == "" || geneB == "" {
			log.Fatalln("-gene and -gene-b are required for translocations")
		}
		indicators, err := annotate.Translocations(ctx, gene, geneB, barcodes, file)
		if err != nil {
			log.Fatalln(err)
		}
		for _, v := range indicators {
			labels = append(labels, strconv.Itoa(v))
		}
	default:
		log.Fatalf("unknown annotation %q\n", kind)
	}

	w := csv.NewWriter(STDOUT)
	w.Comma = '\t'
	w.Write([]string{"sample", kind})
	for i, barcode := range barcodes {
		w.Write([]string{barcode, labels[i]})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalln(err)
	}
}

func readBarcodes(ctx context.Context, matrixPath, barcodesPath string) ([]string, error) {
	if matrixPath != "" {
		ds, err := reader.ReadMatrix(ctx, matrixPath)
		if err != nil {
			return nil, err
		}
		return ds.Samples, nil
	}

	b, err := exprharmony.ReadAll(ctx, barcodesPath)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
