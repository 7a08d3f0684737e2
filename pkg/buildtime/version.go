package buildtime

import (
	_ "embed"
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

// version and commit of this build, like "1.0.0 (commit: abc123)".
//
// The embedded files are rewritten by the release workflow.
func VersionString() string {
	return version + " (commit: " + revision + ")"
}
