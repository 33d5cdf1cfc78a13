package version

import (
	"runtime"
	"time"
)

// Set via -ldflags at release build time; defaults cover dev builds.
var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-08-25T18:42:00Z
	GoVersion = runtime.Version()
)
