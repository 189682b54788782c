// Package version exposes build metadata injected through -ldflags.
package version

import "fmt"

//nolint:gochecknoglobals // Set at build time via -ldflags -X.
var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}

// String returns a one-line description suitable for `pdfbatch version`.
func String() string {
	return fmt.Sprintf("pdfbatch %s (commit %s, built %s)", version, gitCommit, buildDate)
}
