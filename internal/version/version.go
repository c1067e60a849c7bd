// Package version exposes the build metadata printed by the -version
// flag.
package version

// Stamped at release time via -ldflags "-X"; the defaults identify a
// local development build.
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)
