// Package version holds build metadata set with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for `gaze version`.
func String() string {
	return fmt.Sprintf("gaze %s (commit %s, built %s, %s)", Version, GitSHA, BuildTime, runtime.Version())
}
