// Package packager runs the plugin build pipeline for every configured target.
//
// For each target it merges the download links into the build output manifest
// and then archives the build output folder. A failed merge stops the run
// before the archive step, since the archive ships the merged manifest.
package packager
