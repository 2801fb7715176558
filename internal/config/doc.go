// Package config defines the build targets plugin-packager processes and
// provides helpers to load, validate and save them in YAML format.
//
// A target only needs a plugin name; the manifest, output folder and archive
// paths follow the <Name>/bin/x64/<Configuration> project layout unless set.
package config
