// Package launcher composes the application for an entry point.
//
// Each entry point owns exactly one builder, built and run once. The set
// of plugins and whether developer tooling is exposed come from
// platform.Capabilities for the (Platform, Profile) pair the builder was
// composed for.
//
// Mobile lives here; the desktop composition is in launcher/desktop so
// that mobile binaries never link the updater.
package launcher
