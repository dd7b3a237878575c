// Package version exposes build-time version information.
package version

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/abhi0395/redrock/internal/version.Version=...".
var Version = "dev"
