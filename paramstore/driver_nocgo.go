//go:build !cgo
// +build !cgo

package paramstore

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"
