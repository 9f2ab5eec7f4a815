// Package version holds build-time identification for the netslice binaries.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/newtron-network/netslice/pkg/version.Version=v1.0.0 \
//	  -X github.com/newtron-network/netslice/pkg/version.GitCommit=abc1234 \
//	  -X github.com/newtron-network/netslice/pkg/version.BuildDate=2026-07-31"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single human-readable line summarizing the build.
func Info() string {
	return fmt.Sprintf("netslice %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
