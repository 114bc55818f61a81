// Package annotate attaches per-sample clinical and genomic labels (copy
// number, mutation status, gene fusions and drug response) to expression
// datasets.
package annotate

import (
	"math"
	"strconv"
	"strings"
)

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// shortest returns the length of the shortest name, or 0 if there are none.
func shortest(names []string) int {
	if len(names) == 0 {
		return 0
	}
	n := len(names[0])
	for _, name := range names[1:] {
		if len(name) < n {
			n = len(name)
		}
	}
	return n
}

func isMissing(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

func parseFloat(cell string) (float64, error) {
	if isMissing(cell) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
