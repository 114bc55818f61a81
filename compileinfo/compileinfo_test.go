package compileinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringMarksDirtyBuilds(t *testing.T) {
	b := BuildInfo{
		Binary:       "normalize",
		Module:       "github.com/carbocation/exprharmony",
		Version:      "(devel)",
		GoVersion:    "go1.20",
		Revision:     "abc123",
		RevisionTime: "2023-01-02T03:04:05Z",
		Dirty:        true,
	}

	assert.Equal(t, "normalize from github.com/carbocation/exprharmony (devel), go1.20, revision abc123 at 2023-01-02T03:04:05Z (uncommitted changes)", b.String())

	b.Dirty = false
	assert.NotContains(t, b.String(), "uncommitted")
	assert.Equal(t, "abc123", b.Fields()["revision"])
}

func TestReadNamesBinary(t *testing.T) {
	assert.NotEmpty(t, Read().Binary)
}
