// Package version exposes the build version of the application.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/lumison/lumison/version.Version=0.4.2"
//
// The updater compares Semver() against the version advertised by the
// release manifest, and Target() selects the manifest platform entry.
package version
