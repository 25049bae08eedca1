// Package version exposes the build information stamped into the binary.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of the monitoring server.
	Version = "0.1.0"

	// GitCommit and BuildDate are stamped at release time via -ldflags.
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the full build record, served on /healthz.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build record for the running binary.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the record as a single line for startup logs.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
