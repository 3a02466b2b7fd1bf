// Package version holds build information, set with -ldflags -X at build time.
package version

var (
	// Version is the release version of battind.
	Version = "v0.0.0-dev"
	// GitCommit is the commit battind was built from.
	GitCommit = "unknown"
)
