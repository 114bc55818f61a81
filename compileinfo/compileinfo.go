// Package compileinfo reports which revision of exprharmony a binary was
// built from.
package compileinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type BuildInfo struct {
	Binary       string
	Module       string
	Version      string
	GoVersion    string
	Revision     string
	RevisionTime string
	Dirty        bool
}

func (b BuildInfo) String() string {
	dirty := ""
	if b.Dirty {
		dirty = " (uncommitted changes)"
	}

	return fmt.Sprintf("%s from %s %s, %s, revision %s at %s%s", b.Binary, b.Module, b.Version, b.GoVersion, b.Revision, b.RevisionTime, dirty)
}

// Fields returns the build details as structured log fields.
func (b BuildInfo) Fields() log.Fields {
	return log.Fields{
		"binary":   b.Binary,
		"module":   b.Module,
		"version":  b.Version,
		"go":       b.GoVersion,
		"revision": b.Revision,
		"time":     b.RevisionTime,
		"dirty":    b.Dirty,
	}
}

func Read() BuildInfo {
	out := BuildInfo{Binary: filepath.Base(os.Args[0])}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Module = z.Main.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.time":
			out.RevisionTime = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}

	return out
}

// Announce logs the build details at info level.
func Announce() {
	b := Read()
	log.WithFields(b.Fields()).Infoln("exprharmony build")
}
