// Version information embedded at build time.
//
// Release builds rewrite VERSION and revision before compiling.
package buildtime

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed VERSION
var version string

//go:embed revision
var revision string

func init() {
	version = strings.TrimSpace(version)
	revision = strings.TrimSpace(revision)
}

// Version is the release version of terrainkit.
func Version() string {
	return version
}

// Revision is the commit which terrainkit has been built from.
func Revision() string {
	return revision
}

// VersionString is a one-line description of this build.
func VersionString() string {
	return fmt.Sprintf(
		"terrainkit %s (commit: %s, %s %s/%s)",
		version, revision, runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
}
