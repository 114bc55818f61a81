package main

import (
	"testing"

	"github.com/carbocation/exprharmony/dataset"
	"github.com/stretchr/testify/assert"
)

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "tumor_fpkm_BRCA", datasetName("tumor", "fpkm", "BRCA"))
	assert.Equal(t, "cell_line_count_all", datasetName("cell_line", "count", ""))
}

func TestUploadsSourceFirst(t *testing.T) {
	source := &dataset.Dataset{Samples: []string{"S1"}}
	target := &dataset.Dataset{Samples: []string{"T1"}}

	for i := 0; i < 20; i++ {
		ups := uploads("source", source, "target", target)
		if assert.Len(t, ups, 2) {
			assert.Equal(t, "source", ups[0].name)
			assert.Same(t, source, ups[0].ds)
			assert.Equal(t, "target", ups[1].name)
			assert.Same(t, target, ups[1].ds)
		}
	}
}

func TestUploadsSameName(t *testing.T) {
	source := &dataset.Dataset{}
	target := &dataset.Dataset{}

	// Equal names are both kept
	ups := uploads("tumor_fpkm_BRCA", source, "tumor_fpkm_BRCA", target)
	assert.Len(t, ups, 2)
}
