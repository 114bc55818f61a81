package transform

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/norm"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyDataset = errors.New("transform: dataset has no values")

// Parameters carry everything needed to re-apply a fitted feature
// engineering pipeline to new data from the same dataset.
type Parameters struct {
	Normalization  *norm.Parameters `json:"normalization,omitempty"`
	Transformation Method           `json:"transformation,omitempty"`
	Scaler         *Scaler          `json:"scaler,omitempty"`
}

// FeatureEngineering normalizes, transforms and scales the counts in ds.
// Fitted state from params is reused: normalization factors when they are
// present, and the scaler when it has been fitted. Anything missing is
// fitted on ds. The returned Parameters hold the state that was used, and
// can be passed back in to reproduce the pipeline exactly.
//
// A voom normalization followed by a voom transformation yields log counts
// per million.
func FeatureEngineering(ds *dataset.Dataset, normalization, transformation string, meanCenter, stdUnit bool, params *Parameters) (*dataset.Dataset, *Parameters, error) {
	if ds.Data == nil {
		return nil, nil, ErrEmptyDataset
	}

	nm, err := norm.ParseMethod(normalization)
	if err != nil {
		return nil, nil, err
	}
	tm, err := ParseMethod(transformation)
	if err != nil {
		return nil, nil, err
	}

	var (
		normParams *norm.Parameters
		scaler     *Scaler
	)
	if params != nil {
		normParams = params.Normalization
		scaler = params.Scaler
	}

	normalized, normParams, err := norm.Normalize(ds.Data, nm, normParams)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	transformed, err := Apply(normalized, tm)
	if err != nil {
		return nil, nil, err
	}

	if !scaler.Fitted() {
		scaler = NewScaler(meanCenter, stdUnit)
		scaler.Fit(transformed)
	}

	scaled, err := scaler.Transform(transformed)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	samples, genes := ds.Dims()
	log.WithFields(log.Fields{
		"normalization":  nm,
		"transformation": tm,
		"mean_center":    scaler.WithMean,
		"std_unit":       scaler.WithStd,
		"samples":        samples,
		"genes":          genes,
	}).Debugln("Feature engineering")

	out := &dataset.Dataset{
		Data:    scaled,
		Genes:   append([]string(nil), ds.Genes...),
		Samples: append([]string(nil), ds.Samples...),
	}

	return out, &Parameters{Normalization: normParams, Transformation: tm, Scaler: scaler}, nil
}

// Encode writes p as JSON.
func (p *Parameters) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// DecodeParameters reads parameters written by Encode.
func DecodeParameters(r io.Reader) (*Parameters, error) {
	p := &Parameters{}
	if err := json.NewDecoder(r).Decode(p); err != nil {
		return nil, pfx.Err(err)
	}
	return p, nil
}
