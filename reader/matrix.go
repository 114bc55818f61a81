package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/exprharmony/export"
	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/exprharmony/rds"
	"github.com/carbocation/pfx"
)

// ReadMatrix reads a samples x genes matrix whose format is chosen by
// extension: .npy as written by export.WriteNumpy, .rds as an R matrix, and
// anything else as delimited text with sample names in the first column.
func ReadMatrix(ctx context.Context, path string) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz"))) {
	case ".npy":
		return export.ReadNumpy(ctx, path)
	case ".rds":
		return rds.ReadMatrix(ctx, path)
	}

	rows, err := lookup.ReadRows(ctx, path, lookup.AutoDelimiter)
	if err != nil {
		return nil, err
	}

	ds, err := parseIndexedMatrix(rows)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return ds, nil
}
