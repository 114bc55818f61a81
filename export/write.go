package export

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/pfx"
)

// WriteFile writes ds to path, choosing the format by extension: .npy paths
// get a numpy array with label files, anything else a TSV. An empty path or
// "-" writes TSV to stdout.
func WriteFile(path string, ds *dataset.Dataset) error {
	if path == "" || path == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := WriteTSV(w, ds); err != nil {
			return err
		}
		return w.Flush()
	}

	path, err := exprharmony.ExpandHome(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return WriteNumpy(path, ds)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := WriteTSV(w, ds); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}
