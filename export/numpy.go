package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/pfx"
	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// GenesPath and SamplesPath name the label files that accompany a numpy
// matrix.
func GenesPath(path string) string   { return path + ".genes.txt" }
func SamplesPath(path string) string { return path + ".samples.txt" }

// WriteNumpy writes the values of ds as a row-major float64 .npy array of
// shape (samples, genes) at path, with the gene and sample names one per
// line alongside it.
func WriteNumpy(path string, ds *dataset.Dataset) error {
	rows, cols := ds.Dims()

	output, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer output.Close()

	bufw := bufio.NewWriterSize(output, 1<<20)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return pfx.Err(err)
	}

	log.WithFields(log.Fields{
		"filename": path,
		"rows":     rows,
		"cols":     cols,
		"bytes":    rows * cols * 8,
	}).Infof("writing numpy: %s", path)

	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		values = append(values, ds.Data.RawRowView(i)...)
	}

	npw.Shape = []int{rows, cols}
	if err := npw.WriteFloat64(values); err != nil {
		return pfx.Err(err)
	}
	if err := bufw.Flush(); err != nil {
		return pfx.Err(err)
	}
	if err := output.Close(); err != nil {
		return pfx.Err(err)
	}

	if err := writeLines(GenesPath(path), ds.Genes); err != nil {
		return err
	}

	return writeLines(SamplesPath(path), ds.Samples)
}

func writeLines(path string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// ReadNumpy reads a matrix written by WriteNumpy from a local or gs:// path.
// Arrays of any float or integer dtype are accepted.
func ReadNumpy(ctx context.Context, path string) (*dataset.Dataset, error) {
	rc, err := exprharmony.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	npr, err := gonpy.NewReader(rc)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	if len(npr.Shape) != 2 {
		return nil, pfx.Err(fmt.Errorf("%s: expected a 2 dimensional array, got shape %v", path, npr.Shape))
	}
	rows, cols := npr.Shape[0], npr.Shape[1]

	values, err := readFloats(npr)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	genes, err := readLines(ctx, GenesPath(path))
	if err != nil {
		return nil, err
	}
	samples, err := readLines(ctx, SamplesPath(path))
	if err != nil {
		return nil, err
	}

	if rows == 0 || cols == 0 {
		return dataset.New(nil, genes, samples)
	}

	data := mat.NewDense(rows, cols, nil)
	if npr.ColumnMajor {
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				data.Set(i, j, values[j*rows+i])
			}
		}
	} else {
		data = mat.NewDense(rows, cols, values)
	}

	return dataset.New(data, genes, samples)
}

func readFloats(npr *gonpy.NpyReader) ([]float64, error) {
	switch strings.TrimLeft(npr.Dtype, "<>|=") {
	case "f8":
		return npr.GetFloat64()
	case "f4":
		v, err := npr.GetFloat32()
		return widen(v), err
	case "i8":
		v, err := npr.GetInt64()
		return widen(v), err
	case "i4":
		v, err := npr.GetInt32()
		return widen(v), err
	}
	return nil, fmt.Errorf("unsupported dtype %s", npr.Dtype)
}

func widen[T float32 | int64 | int32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func readLines(ctx context.Context, path string) ([]string, error) {
	b, err := exprharmony.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}
	return lines, nil
}
