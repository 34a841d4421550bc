// Package version holds build-time version metadata for NetMeter.
// The variables are overridden at build time via -ldflags:
//
//	go build -ldflags "-X github.com/HerbHall/netmeter/internal/version.Version=v1.2.3"
package version

import "fmt"

var (
	// Version is the semantic version of this build.
	Version = "dev"
	// Commit is the git commit hash this build was produced from.
	Commit = "unknown"
	// Date is the build timestamp in RFC 3339 format.
	Date = "unknown"
)

// Short returns just the version string, e.g. "v1.2.3" or "dev".
func Short() string {
	return Version
}

// Info returns a human-readable multi-field version line.
func Info() string {
	return fmt.Sprintf("netmeter %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns version metadata as a map for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
