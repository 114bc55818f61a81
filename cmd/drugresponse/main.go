// drugresponse restricts an expression matrix to the cell lines with a
// measured IC50 for one drug and writes the matrix and the responses.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/carbocation/exprharmony/annotate"
	_ "github.com/carbocation/exprharmony/compileinfoprint"
	"github.com/carbocation/exprharmony/export"
	"github.com/carbocation/exprharmony/reader"
)

func main() {
	var (
		configPath   string
		matrixPath   string
		typeData     string
		drugID       string
		output       string
		responseOut  string
		responseFile string
		specFile     string
	)

	flag.StringVar(&configPath, "config", "", "Optional YAML file describing the data folders.")
	flag.StringVar(&matrixPath, "matrix", "", "Cell line expression matrix (.npy, .rds or delimited).")
	flag.StringVar(&typeData, "data-type", reader.Count, "Data type of the matrix. Only count has drug responses.")
	flag.StringVar(&drugID, "drug", "", "Drug identifier, e.g. 1003.")
	flag.StringVar(&output, "output", "", "Where to write the restricted matrix (.npy or delimited). Empty to skip.")
	flag.StringVar(&responseOut, "responses", "-", "Where to write sample/IC50 pairs as TSV. - for stdout.")
	flag.StringVar(&responseFile, "ic50", "", "Override the IC50 table. Requires -specifications.")
	flag.StringVar(&specFile, "specifications", "", "Override the drug specification table. Requires -ic50.")
	flag.Parse()

	if matrixPath == "" || drugID == "" || (responseFile == "") != (specFile == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	layout, err := reader.LoadLayout(configPath)
	if err != nil {
		log.Fatalln(err)
	}

	ds, err := reader.ReadMatrix(ctx, matrixPath)
	if err != nil {
		log.Fatalln(err)
	}

	var res *annotate.DrugResponse
	if responseFile != "" {
		res, err = annotate.ReadDrugResponse(ctx, drugID, ds, responseFile, specFile)
	} else {
		res, err = annotate.ReadDrugResponseByType(ctx, typeData, layout.CellLineFolder, drugID, ds)
	}
	if err != nil {
		log.Fatalln(err)
	}
	log.Println(res.DrugName, "has responses for", len(res.Responses), "of", len(ds.Samples), "samples")

	if output != "" {
		if err := export.WriteFile(output, res.Data); err != nil {
			log.Fatalln(err)
		}
	}

	if err := writeResponses(responseOut, res); err != nil {
		log.Fatalln(err)
	}
}

func writeResponses(path string, res *annotate.DrugResponse) error {
	f := os.Stdout
	if path != "-" && path != "" {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
	}

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	w.Comma = '\t'
	w.Write([]string{"sample", res.DrugName})
	for i, sample := range res.Data.Samples {
		w.Write([]string{sample, strconv.FormatFloat(res.Responses[i], 'g', -1, 64)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return bw.Flush()
}
