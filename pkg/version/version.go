// Package version exposes the trialstat build version.
package version

// Version is the trialstat version, overridden at build time via
// -ldflags "-X github.com/trialmetrics/trialstat/pkg/version.Version=v1.2.3".
//
//nolint:gochecknoglobals // Set by the linker at build time.
var Version = "dev"

// GetVersion returns the current trialstat version string.
func GetVersion() string {
	return Version
}
