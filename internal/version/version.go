// Package version exposes build metadata injected at link time via
// -ldflags "-X ...".
package version

var (
	// Version is the semantic version, "dev" for local builds
	Version = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"
)

// GetVersion returns the application version
func GetVersion() string {
	return Version
}

// GetBuildTime returns when the binary was built
func GetBuildTime() string {
	return BuildTime
}

// GetVersionInfo returns a single display string with the full build info
func GetVersionInfo() string {
	return "yozora v" + Version + " (built " + BuildTime + ")"
}
