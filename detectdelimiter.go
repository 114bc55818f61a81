package exprharmony

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// DetermineDelimiterBytes is DetermineDelimiter over an in-memory file. Files
// with a .tsv or .txt extension that contain a tab in their first line are
// treated as tab-delimited without sniffing.
func DetermineDelimiterBytes(path string, fileBytes []byte) rune {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	if ext == ".tsv" || ext == ".txt" {
		firstLine := fileBytes
		if i := bytes.IndexByte(fileBytes, '\n'); i >= 0 {
			firstLine = fileBytes[:i]
		}
		if bytes.IndexByte(firstLine, '\t') >= 0 {
			return '\t'
		}
	}

	return DetermineDelimiter(bytes.NewReader(fileBytes))
}
