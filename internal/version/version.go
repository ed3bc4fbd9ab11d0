// Package version holds build metadata stamped at link time:
//
//	go build -ldflags "-X github.com/carewell-ai/polisearch/internal/version.Version=$(git describe --tags)"
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
