// Package buildinfo carries the version stamped into the books binary.
package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/cleared-dev/books/internal/buildinfo.Version=..." at release.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build stamp for --version and the activity log.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
