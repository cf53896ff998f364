// Package buildinfo holds version metadata stamped in by the release build:
//
//	go build -ldflags "-X github.com/fluxo-dev/fluxo/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for `fluxo --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
