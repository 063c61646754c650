// Package version holds build metadata, set with -ldflags "-X".
package version

import "runtime"

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-10-18T09:12:00Z
	GoVersion = runtime.Version() // go version
)
