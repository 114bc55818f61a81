// compileinfoprint is imported by the exprharmony commands for the side effect
// of logging their build details at startup.
package compileinfoprint

import "github.com/carbocation/exprharmony/compileinfo"

func init() {
	compileinfo.Announce()
}
