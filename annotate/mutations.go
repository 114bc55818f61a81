package annotate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/carbocation/exprharmony/lookup"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

const (
	NotProfiled = -1
	NotMutated  = 0
	Mutated     = 1
)

// MutationStatus is the mutation call of one tumor. Label, when set, is the
// protein change reported for the tumor.
type MutationStatus struct {
	Code  int
	Label string
}

func (s MutationStatus) String() string {
	if s.Label != "" {
		return s.Label
	}
	return strconv.Itoa(s.Code)
}

// Mutations reads a tab-delimited oncoprint track file. Its first two columns
// name the track and the remaining columns are samples; the first track
// records whether the sample was profiled ("Yes") and the third holds the
// mutation calls, where an empty cell means no mutation.
//
// Tumors whose truncated barcode is not a profiled sample are NotProfiled.
// If detailFile is set, it is read as a tab-delimited table with "Sample ID"
// and "Protein Change" columns and the protein change becomes the label of
// every tumor whose truncated barcode matches the sample ID.
func Mutations(ctx context.Context, barcodes []string, statusFile, detailFile string) ([]MutationStatus, error) {
	rows, err := lookup.ReadRows(ctx, statusFile, '\t')
	if err != nil {
		return nil, err
	}
	if len(rows) < 4 {
		return nil, pfx.Err(fmt.Errorf("%s: expected a header and at least 3 tracks, found %d rows", statusFile, len(rows)))
	}

	header, clinical, mutation := rows[0], rows[1], rows[3]

	profiled := make([]int, 0, len(header))
	names := make([]string, 0, len(header))
	for j := 2; j < len(header); j++ {
		if cell(clinical, j) == "Yes" {
			profiled = append(profiled, j)
			names = append(names, header[j])
		}
	}
	length := shortest(names)

	calls := make(map[string]int, len(profiled))
	for k, j := range profiled {
		// Samples sharing a truncated barcode are mutated if any of them is
		key := truncate(names[k], length)
		if isMissing(cell(mutation, j)) {
			if _, exists := calls[key]; !exists {
				calls[key] = NotMutated
			}
		} else {
			calls[key] = Mutated
		}
	}

	out := make([]MutationStatus, len(barcodes))
	truncated := make([]string, len(barcodes))
	mutated := 0
	for i, barcode := range barcodes {
		truncated[i] = truncate(barcode, length)
		out[i].Code = NotProfiled
		if code, exists := calls[truncated[i]]; exists {
			out[i].Code = code
		}
		if out[i].Code == Mutated {
			mutated++
		}
	}

	if detailFile != "" {
		if err := labelProteinChanges(ctx, detailFile, truncated, out); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"tumors":   len(barcodes),
		"profiled": len(calls),
		"mutated":  mutated,
	}).Debugln("Read mutation status")

	return out, nil
}

// labelProteinChanges overwrites labels in row order, so the last row for a
// sample wins.
func labelProteinChanges(ctx context.Context, detailFile string, truncated []string, out []MutationStatus) error {
	rows, err := lookup.ReadRows(ctx, detailFile, '\t')
	if err != nil {
		return err
	}
	if len(rows) < 1 {
		return pfx.Err(fmt.Errorf("%s: empty mutation detail table", detailFile))
	}

	sampleCol := columnIndex(rows[0], "Sample ID")
	changeCol := columnIndex(rows[0], "Protein Change")
	if sampleCol < 0 || changeCol < 0 {
		return pfx.Err(fmt.Errorf("%s: expected Sample ID and Protein Change columns", detailFile))
	}

	for _, row := range rows[1:] {
		sample, change := cell(row, sampleCol), cell(row, changeCol)
		for i, name := range truncated {
			if name == sample {
				out[i].Label = change
			}
		}
	}

	return nil
}
