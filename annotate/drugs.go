package annotate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

var ErrUnsupportedDataType = errors.New("drug response is only available for count data")

// DrugResponse is a dataset restricted to the samples that have a measured
// response to one drug.
type DrugResponse struct {
	Data      *dataset.Dataset
	Responses []float64
	DrugName  string
}

// ReadDrugResponse restricts ds to the samples with an IC50 for drugID. The
// response file is comma-delimited; its first column holds sample names and
// the column named drugID holds IC50 values, which may be missing. Samples
// keep their order in ds. When a sample appears more than once in the
// response file, its first measured value is used. The drug name is looked up
// in specFile by Identifier.
func ReadDrugResponse(ctx context.Context, drugID string, ds *dataset.Dataset, responseFile, specFile string) (*DrugResponse, error) {
	ic50, err := readIC50(ctx, drugID, responseFile)
	if err != nil {
		return nil, err
	}

	idx := make([]int, 0, len(ds.Samples))
	responses := make([]float64, 0, len(ds.Samples))
	for i, sample := range ds.Samples {
		if v, ok := ic50[sample]; ok {
			idx = append(idx, i)
			responses = append(responses, v.Float64)
		}
	}

	specs, err := lookup.ReadDrugSpecifications(ctx, specFile)
	if err != nil {
		return nil, err
	}
	name, err := lookup.DrugName(specs, drugID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"drug":      name,
		"drug_id":   drugID,
		"samples":   len(ds.Samples),
		"responses": len(responses),
	}).Infoln("Read drug response")

	return &DrugResponse{
		Data:      ds.SelectSamples(idx),
		Responses: responses,
		DrugName:  name,
	}, nil
}

// readIC50 returns the first measured IC50 of each sample.
func readIC50(ctx context.Context, drugID, responseFile string) (map[string]null.Float, error) {
	rows, err := lookup.ReadRows(ctx, responseFile, ',')
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, pfx.Err(fmt.Errorf("%s: empty response table", responseFile))
	}

	drugCol := columnIndex(rows[0], drugID)
	if drugCol < 1 {
		return nil, pfx.Err(fmt.Errorf("%s: no response column for drug %s", responseFile, drugID))
	}

	out := make(map[string]null.Float)
	for _, row := range rows[1:] {
		sample := cell(row, 0)
		if isMissing(sample) {
			continue
		}
		if _, exists := out[sample]; exists {
			continue
		}

		v, err := parseFloat(cell(row, drugCol))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: sample %s: %w", responseFile, sample, err))
		}
		measured := null.NewFloat(v, !math.IsNaN(v))
		if !measured.Valid {
			continue
		}
		out[sample] = measured
	}

	return out, nil
}

// ReadDrugResponseByType resolves the response and drug specification files
// for typeData inside folder and calls ReadDrugResponse. Only count data has
// drug responses.
func ReadDrugResponseByType(ctx context.Context, typeData, folder, drugID string, ds *dataset.Dataset) (*DrugResponse, error) {
	if typeData != "count" {
		return nil, fmt.Errorf("%s: %w", typeData, ErrUnsupportedDataType)
	}

	responseFile, specFile := drugResponseFiles(folder)
	return ReadDrugResponse(ctx, drugID, ds, responseFile, specFile)
}

// drugResponseFiles locates the IC50 and drug specification tables, which may
// live in a local or gs:// folder.
func drugResponseFiles(folder string) (responseFile, specFile string) {
	return exprharmony.JoinPath(folder, "ic50.csv"), exprharmony.JoinPath(folder, "drugs_specifications.csv")
}
