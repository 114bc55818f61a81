// normalize runs feature engineering on a single expression matrix (samples
// as rows, genes as columns) read from .npy, .rds or a delimited file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	_ "github.com/carbocation/exprharmony/compileinfoprint"
	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/export"
	"github.com/carbocation/exprharmony/paramstore"
	"github.com/carbocation/exprharmony/reader"
	"github.com/carbocation/exprharmony/transform"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		input, output       string
		normalization       string
		transformation      string
		meanCenter, stdUnit bool
		paramsDB            string
		paramsName          string
		refit               bool
		listParams          bool
		bins                int
		verbose             bool
	)

	flag.StringVar(&input, "input", "", "Matrix to normalize: .npy (with .genes.txt and .samples.txt), .rds or delimited. Local, ~/ or gs://.")
	flag.StringVar(&output, "output", "-", "Output path. .npy writes numpy, anything else TSV. - for stdout.")
	flag.StringVar(&normalization, "normalization", "None", "Normalization: tmm, deseq, total_count, upper_quartile, median, quantile, voom or None.")
	flag.StringVar(&transformation, "transformation", "None", "Transformation: log, voom, anscombe, quantile or None.")
	flag.BoolVar(&meanCenter, "mean-center", false, "Center every gene on its mean.")
	flag.BoolVar(&stdUnit, "std-unit", false, "Scale every gene to unit variance.")
	flag.StringVar(&paramsDB, "params-db", "", "Optional SQLite file holding fitted parameters.")
	flag.StringVar(&paramsName, "params-name", "", "Name under which parameters are stored in -params-db.")
	flag.BoolVar(&refit, "refit", false, "Ignore stored parameters, fit anew and overwrite them.")
	flag.BoolVar(&listParams, "list-params", false, "Print the parameter sets stored in -params-db and exit.")
	flag.IntVar(&bins, "bins", 20, "Number of bins in the library size histogram. 0 to disable.")
	flag.BoolVar(&verbose, "verbose", false, "Log debug details.")
	flag.Parse()

	if listParams && paramsDB != "" {
		if err := printStoredParams(paramsDB); err != nil {
			log.Fatalln(err)
		}
		return
	}

	if input == "" || (paramsDB != "" && paramsName == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ds, err := reader.ReadMatrix(context.Background(), input)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Read", len(ds.Samples), "samples and", len(ds.Genes), "genes from", input)

	if bins > 0 {
		if err := printLibrarySizes(ds, bins); err != nil {
			log.Fatalln(err)
		}
	}

	var store *paramstore.Store
	var params *transform.Parameters
	if paramsDB != "" {
		store, err = paramstore.Open(paramsDB)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		if !refit {
			params, err = store.Load(paramsName)
			if errors.Is(err, paramstore.ErrNotFound) {
				params = nil
			} else if err != nil {
				log.Fatalln(err)
			} else {
				log.Println("Reusing stored parameters", paramsName)
			}
		}
	}

	out, fitted, err := transform.FeatureEngineering(ds, normalization, transformation, meanCenter, stdUnit, params)
	if err != nil {
		log.Fatalln(err)
	}

	if store != nil && params == nil {
		if err := store.Save(paramsName, fitted); err != nil {
			log.Fatalln(err)
		}
		log.Println("Saved parameters", paramsName)
	}

	if err := export.WriteFile(output, out); err != nil {
		log.Fatalln(err)
	}
}

func printLibrarySizes(ds *dataset.Dataset, bins int) error {
	samples, _ := ds.Dims()
	if samples == 0 {
		return nil
	}

	sizes := make([]float64, samples)
	for i := range sizes {
		for _, v := range ds.Data.RawRowView(i) {
			sizes[i] += v
		}
	}

	log.Println("Library sizes:")
	hist := histogram.Hist(bins, sizes)
	return histogram.Fprint(os.Stderr, hist, histogram.Linear(40))
}

func printStoredParams(paramsDB string) error {
	store, err := paramstore.Open(paramsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}

	for _, e := range entries {
		when, err := e.UpdatedAt()
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", e.Name, e.Normalization, e.Transformation, when.Format(time.RFC3339))
	}

	return nil
}
