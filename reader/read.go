package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/harmonize"
	log "github.com/sirupsen/logrus"
)

// Model types
const (
	Tumor    = "tumor"
	CellLine = "cell_line"
	PDX      = "pdx"
)

// Data types
const (
	FPKM          = "fpkm"
	Count         = "count"
	CountPassport = "count_passport"
)

// ReadOneSource reads the dataset of one model type, data type and tissue
// from the layout. An empty tissue disables the tissue filter for cell
// lines.
func ReadOneSource(ctx context.Context, layout Layout, modelType, dataType, tissue string) (*dataset.Dataset, error) {
	dataType = strings.ToLower(dataType)
	geneLookup := layout.GeneLookupFile()

	switch strings.ToLower(modelType) {
	case Tumor:
		fileType := dataType
		if dataType == CountPassport {
			fileType = Count
		}
		return ReadTumor(ctx, layout.TumorFile(fileType, tissue), geneLookup, layout.BiospecimenFile(tissue))

	case CellLine:
		switch dataType {
		case FPKM:
			return ReadCellLineFPKM(ctx, layout.CellLineFPKMFile(), geneLookup, layout.CellLineTypesFile(), tissue)
		case Count:
			return ReadCellLineRDS(ctx, layout.CellLineCountFile(), geneLookup, layout.CellLineTypesFile(), tissue)
		case CountPassport:
			return ReadCellPassport(ctx,
				layout.CellPassportCountFile(),
				layout.CellPassportGeneFile(),
				layout.CellPassportModelFile(),
				layout.GeneCharacteristics,
				tissue)
		}
		return nil, fmt.Errorf("data type %q is not available for cell lines", dataType)

	case PDX:
		if dataType != FPKM {
			return nil, fmt.Errorf("only %s is available for PDX, not %q", FPKM, dataType)
		}
		return ReadPDX(ctx, layout.PDXFile(tissue), geneLookup)
	}

	return nil, fmt.Errorf("unknown model type %q", modelType)
}

// Harmonized is a source and a target dataset sharing the same genes in the
// same order.
type Harmonized struct {
	Target *dataset.Dataset
	Source *dataset.Dataset
	Genes  []string
}

// ReadData reads one source and one target dataset and harmonizes their
// features.
func ReadData(ctx context.Context, layout Layout, sourceType, targetType, dataType, sourceTissue, targetTissue string, removeMitochondria bool) (*Harmonized, error) {
	source, err := ReadOneSource(ctx, layout, sourceType, dataType, sourceTissue)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", sourceType, err)
	}

	target, err := ReadOneSource(ctx, layout, targetType, dataType, targetTissue)
	if err != nil {
		return nil, fmt.Errorf("reading target %s: %w", targetType, err)
	}

	log.WithFields(log.Fields{
		"source":         sourceType,
		"source_samples": len(source.Samples),
		"target":         targetType,
		"target_samples": len(target.Samples),
	}).Infoln("Read source and target")

	t, s, genes, err := harmonize.FeatureNaming(target, source, removeMitochondria, layout.GeneLookupFile())
	if err != nil {
		return nil, err
	}

	return &Harmonized{Target: t, Source: s, Genes: genes}, nil
}
