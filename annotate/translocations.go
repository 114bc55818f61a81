package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Translocations flags tumors that carry a fusion between geneA and geneB in
// either orientation. The file is tab-delimited with Gene_A, Gene_B and
// sampleId columns; sample IDs use dots where barcodes use dashes and are
// compared with the barcode starting at byte 5. Every matching sampleId must
// have the same length. The result is 1 for carriers and 0 otherwise.
func Translocations(ctx context.Context, geneA, geneB string, barcodes []string, file string) ([]int, error) {
	rows, err := lookup.ReadRows(ctx, file, '\t')
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, pfx.Err(fmt.Errorf("%s: empty translocation table", file))
	}

	aCol := columnIndex(rows[0], "Gene_A")
	bCol := columnIndex(rows[0], "Gene_B")
	sampleCol := columnIndex(rows[0], "sampleId")
	if aCol < 0 || bCol < 0 || sampleCol < 0 {
		return nil, pfx.Err(fmt.Errorf("%s: expected Gene_A, Gene_B and sampleId columns", file))
	}

	pair := map[string]struct{}{geneA: {}, geneB: {}}
	carriers := make(map[string]struct{})
	length := -1
	for _, row := range rows[1:] {
		if _, ok := pair[cell(row, aCol)]; !ok {
			continue
		}
		if _, ok := pair[cell(row, bCol)]; !ok {
			continue
		}

		sample := strings.ReplaceAll(cell(row, sampleCol), ".", "-")
		if length >= 0 && len(sample) != length {
			return nil, pfx.Err(fmt.Errorf("%s: sampleId %s has length %d, others have length %d", file, sample, len(sample), length))
		}
		length = len(sample)
		carriers[sample] = struct{}{}
	}

	out := make([]int, len(barcodes))
	found := 0
	if length >= 0 {
		for i, barcode := range barcodes {
			if _, ok := carriers[substring(barcode, 5, 5+length)]; ok {
				out[i] = 1
				found++
			}
		}
	}

	log.WithFields(log.Fields{
		"gene_a":   geneA,
		"gene_b":   geneB,
		"samples":  len(carriers),
		"carriers": found,
	}).Debugln("Read translocations")

	return out, nil
}

// substring clamps [start, end) to s.
func substring(s string, start, end int) string {
	if start > len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
