// harmonize reads a source and a target expression dataset, restricts them to
// their common genes, runs feature engineering on each and writes both out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

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
		configPath                  string
		sourceType, targetType      string
		dataType                    string
		sourceTissue, targetTissue  string
		removeMitochondria          bool
		normalization               string
		transformation              string
		meanCenter, stdUnit         bool
		paramsDB                    string
		outSource, outTarget        string
		bqProject, bqDataset, bqTbl string
		verbose                     bool
	)

	flag.StringVar(&configPath, "config", "", "Optional YAML file describing the data folders.")
	flag.StringVar(&sourceType, "source", reader.CellLine, "Source model type: cell_line, tumor or pdx.")
	flag.StringVar(&targetType, "target", reader.Tumor, "Target model type: cell_line, tumor or pdx.")
	flag.StringVar(&dataType, "data-type", reader.FPKM, "Data type: fpkm, count or count_passport.")
	flag.StringVar(&sourceTissue, "source-tissue", "", "Tissue (TCGA type) of the source, e.g. BRCA. Empty for all.")
	flag.StringVar(&targetTissue, "target-tissue", "", "Tissue (TCGA type) of the target, e.g. BRCA.")
	flag.BoolVar(&removeMitochondria, "remove-mito", false, "Drop genes outside chromosomes 1-22, X and Y.")
	flag.StringVar(&normalization, "normalization", "None", "Normalization: tmm, deseq, total_count, upper_quartile, median, quantile, voom or None.")
	flag.StringVar(&transformation, "transformation", "None", "Transformation: log, voom, anscombe, quantile or None.")
	flag.BoolVar(&meanCenter, "mean-center", false, "Center every gene on its mean.")
	flag.BoolVar(&stdUnit, "std-unit", false, "Scale every gene to unit variance.")
	flag.StringVar(&paramsDB, "params-db", "", "Optional SQLite file. Source parameters are loaded from it when present and saved to it otherwise.")
	flag.StringVar(&outSource, "out-source", "", "Output for the source (.npy or delimited). Empty to skip.")
	flag.StringVar(&outTarget, "out-target", "", "Output for the target (.npy or delimited). Empty to skip.")
	flag.StringVar(&bqProject, "bq-project", "", "Optional BigQuery project to upload both datasets to.")
	flag.StringVar(&bqDataset, "bq-dataset", "", "BigQuery dataset (required with -bq-project).")
	flag.StringVar(&bqTbl, "bq-table", "expression", "BigQuery table.")
	flag.BoolVar(&verbose, "verbose", false, "Log debug details.")
	flag.Parse()

	if targetTissue == "" || (bqProject != "" && bqDataset == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx := context.Background()

	layout, err := reader.LoadLayout(configPath)
	if err != nil {
		log.Fatalln(err)
	}

	h, err := reader.ReadData(ctx, layout, sourceType, targetType, dataType, sourceTissue, targetTissue, removeMitochondria)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Harmonized", len(h.Genes), "genes")

	sourceName := datasetName(sourceType, dataType, sourceTissue)
	targetName := datasetName(targetType, dataType, targetTissue)

	var store *paramstore.Store
	var params *transform.Parameters
	if paramsDB != "" {
		store, err = paramstore.Open(paramsDB)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		params, err = store.Load(sourceName)
		if errors.Is(err, paramstore.ErrNotFound) {
			params = nil
		} else if err != nil {
			log.Fatalln(err)
		} else {
			log.Println("Reusing stored parameters for", sourceName)
		}
	}

	source, fitted, err := transform.FeatureEngineering(h.Source, normalization, transformation, meanCenter, stdUnit, params)
	if err != nil {
		log.Fatalln(err)
	}
	if store != nil && params == nil {
		if err := store.Save(sourceName, fitted); err != nil {
			log.Fatalln(err)
		}
		log.Println("Saved parameters for", sourceName)
	}

	target, _, err := transform.FeatureEngineering(h.Target, normalization, transformation, meanCenter, stdUnit, nil)
	if err != nil {
		log.Fatalln(err)
	}

	if err := write(outSource, source); err != nil {
		log.Fatalln(err)
	}
	if err := write(outTarget, target); err != nil {
		log.Fatalln(err)
	}

	if bqProject == "" {
		return
	}

	bq, err := export.NewBigQuery(ctx, bqProject, bqDataset, bqTbl)
	if err != nil {
		log.Fatalln(err)
	}
	defer bq.Close()

	for _, up := range uploads(sourceName, source, targetName, target) {
		inserted, err := bq.Upload(ctx, up.name, up.ds)
		if err != nil {
			log.Fatalln(err)
		}
		log.Println(up.name, "uploaded:", inserted)
	}
}

type namedDataset struct {
	name string
	ds   *dataset.Dataset
}

// uploads lists the datasets to export, source first.
func uploads(sourceName string, source *dataset.Dataset, targetName string, target *dataset.Dataset) []namedDataset {
	return []namedDataset{
		{name: sourceName, ds: source},
		{name: targetName, ds: target},
	}
}

func datasetName(modelType, dataType, tissue string) string {
	if tissue == "" {
		tissue = "all"
	}
	return fmt.Sprintf("%s_%s_%s", modelType, dataType, tissue)
}

func write(path string, ds *dataset.Dataset) error {
	if path == "" {
		return nil
	}
	if err := export.WriteFile(path, ds); err != nil {
		return err
	}
	log.Println("Wrote", path)
	return nil
}
