// rds2tsv converts an R matrix or data.frame saved with saveRDS into a
// tab-delimited table, optionally transposing it so that samples are rows.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/carbocation/exprharmony/compileinfoprint"
	"github.com/carbocation/exprharmony/export"
	"github.com/carbocation/exprharmony/rds"
)

func main() {
	var (
		filename  string
		output    string
		transpose bool
	)

	flag.StringVar(&filename, "file", "", "Path to the .rds file. Local, ~/ or gs://.")
	flag.StringVar(&output, "output", "-", "Output path. .npy writes numpy, anything else TSV. - for stdout.")
	flag.BoolVar(&transpose, "transpose", false, "Write columns of the R object as rows.")
	flag.Parse()

	if filename == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ds, err := rds.ReadMatrix(context.Background(), filename)
	if err != nil {
		log.Fatalln(err)
	}

	if transpose {
		ds = ds.Transpose()
	}

	log.Println("Writing", len(ds.Samples), "rows and", len(ds.Genes), "columns")

	if err := export.WriteFile(output, ds); err != nil {
		log.Fatalln(err)
	}
}
