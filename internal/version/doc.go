// Package version exposes build metadata for plugin-packager.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags
// and default to values suitable for local builds.
package version
