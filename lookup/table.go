// Package lookup loads the gene and sample metadata tables that expression
// datasets are joined against.
package lookup

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/pfx"
	"github.com/extrame/xls"
	"github.com/gocarina/gocsv"
)

// AutoDelimiter asks ReadTable to sniff the delimiter.
const AutoDelimiter rune = 0

// ReadTable unmarshals a delimited (optionally compressed, local or gs://) or
// .xls table into out, which must be a pointer to a slice of structs with csv
// tags. Columns without a matching tag are ignored.
func ReadTable(ctx context.Context, path string, delim rune, out interface{}) error {
	fileBytes, err := exprharmony.ReadAll(ctx, path)
	if err != nil {
		return err
	}

	var rdr gocsv.CSVReader
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		rows, err := xlsRows(fileBytes)
		if err != nil {
			return pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		rdr = &rowsReader{rows: rows}
	} else {
		if delim == AutoDelimiter {
			delim = exprharmony.DetermineDelimiterBytes(path, fileBytes)
		}
		cr := csv.NewReader(bytes.NewReader(fileBytes))
		cr.Comma = delim
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
		rdr = cr
	}

	if err := gocsv.UnmarshalCSV(rdr, out); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return nil
}

// ReadRows returns every row of a delimited table, header included.
func ReadRows(ctx context.Context, path string, delim rune) ([][]string, error) {
	fileBytes, err := exprharmony.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return xlsRows(fileBytes)
	}

	if delim == AutoDelimiter {
		delim = exprharmony.DetermineDelimiterBytes(path, fileBytes)
	}

	cr := csv.NewReader(bytes.NewReader(fileBytes))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rows, nil
}

// xlsRows flattens the first sheet of an .xls workbook.
func xlsRows(fileBytes []byte) ([][]string, error) {
	spreadsheet, err := xls.OpenReader(bytes.NewReader(fileBytes), "utf-8")
	if err != nil {
		return nil, err
	}

	if spreadsheet.NumSheets() < 1 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := spreadsheet.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("sheet 0 was nil")
	}

	out := make([][]string, 0, int(sheet.MaxRow)+1)
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			continue
		}

		cols := make([]string, 0, row.LastCol()+1)
		for colID := 0; colID <= row.LastCol(); colID++ {
			cols = append(cols, row.Col(colID))
		}
		out = append(out, cols)
	}

	return out, nil
}

// rowsReader lets gocsv consume rows that did not come from encoding/csv.
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	r.pos++
	return r.rows[r.pos-1], nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	out := r.rows[r.pos:]
	r.pos = len(r.rows)
	return out, nil
}
